package classifier

import "strconv"

// ClassMetrics 是分类报告中的一行。
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report 是测试集上的完整分类报告，键为类别标签以及 "macro avg"、"weighted avg"。
type Report map[string]ClassMetrics

// evaluate 计算准确率和分类报告。只统计在真实标签或预测标签中出现过的类别，
// 分母为 0 的指标记为 0。
func evaluate(yTrue, yPred []int) (float64, Report) {
	report := make(Report)
	if len(yTrue) == 0 {
		return 0, report
	}

	present := make(map[int]bool)
	var correct int
	for i := range yTrue {
		present[yTrue[i]] = true
		present[yPred[i]] = true
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(yTrue))

	var macro, weighted ClassMetrics
	var labels, totalSupport int
	for _, label := range Classes {
		if !present[label] {
			continue
		}
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yTrue[i] == label && yPred[i] == label:
				tp++
			case yTrue[i] != label && yPred[i] == label:
				fp++
			case yTrue[i] == label && yPred[i] != label:
				fn++
			}
		}
		m := ClassMetrics{
			Precision: safeDiv(float64(tp), float64(tp+fp)),
			Recall:    safeDiv(float64(tp), float64(tp+fn)),
			Support:   tp + fn,
		}
		m.F1Score = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
		report[strconv.Itoa(label)] = m

		labels++
		totalSupport += m.Support
		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1Score += m.F1Score
		weighted.Precision += m.Precision * float64(m.Support)
		weighted.Recall += m.Recall * float64(m.Support)
		weighted.F1Score += m.F1Score * float64(m.Support)
	}

	n := float64(labels)
	report["macro avg"] = ClassMetrics{
		Precision: safeDiv(macro.Precision, n),
		Recall:    safeDiv(macro.Recall, n),
		F1Score:   safeDiv(macro.F1Score, n),
		Support:   totalSupport,
	}
	s := float64(totalSupport)
	report["weighted avg"] = ClassMetrics{
		Precision: safeDiv(weighted.Precision, s),
		Recall:    safeDiv(weighted.Recall, s),
		F1Score:   safeDiv(weighted.F1Score, s),
		Support:   totalSupport,
	}
	return accuracy, report
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
