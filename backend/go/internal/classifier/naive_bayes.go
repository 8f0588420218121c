package classifier

import (
	"fmt"
	"math"
)

const (
	// varSmoothing 乘以特征最大方差后加到每个方差上，避免除零。
	varSmoothing = 1e-9
	// minEpsilon 在所有特征方差都为 0 时使用。
	minEpsilon = 1e-9
)

// Classes 是二分类的标签集合，下标即标签。
var Classes = []int{0, 1}

// gaussianNB 是高斯朴素贝叶斯的已学习参数。
// 训练中未出现的类别计数为 0，预测概率恒为 0。
type gaussianNB struct {
	classCount []float64
	classPrior []float64
	theta      [][]float64
	variance   [][]float64
	epsilon    float64
}

func fitGaussianNB(X [][]float64, y []int) (*gaussianNB, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("训练集为空")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("样本数 %d 与标签数 %d 不一致", len(X), len(y))
	}
	dim := len(X[0])
	nc := len(Classes)

	nb := &gaussianNB{
		classCount: make([]float64, nc),
		classPrior: make([]float64, nc),
		theta:      make([][]float64, nc),
		variance:   make([][]float64, nc),
	}
	for c := range Classes {
		nb.theta[c] = make([]float64, dim)
		nb.variance[c] = make([]float64, dim)
	}

	for i, row := range X {
		if len(row) != dim {
			return nil, fmt.Errorf("第 %d 个样本维度为 %d, 期望 %d", i, len(row), dim)
		}
		c := y[i]
		if c < 0 || c >= nc {
			return nil, fmt.Errorf("第 %d 个样本的标签 %d 不是 0 或 1", i, c)
		}
		nb.classCount[c]++
		for j, v := range row {
			nb.theta[c][j] += v
		}
	}
	for c := range Classes {
		if nb.classCount[c] == 0 {
			continue
		}
		for j := range nb.theta[c] {
			nb.theta[c][j] /= nb.classCount[c]
		}
	}
	for i, row := range X {
		c := y[i]
		for j, v := range row {
			d := v - nb.theta[c][j]
			nb.variance[c][j] += d * d
		}
	}

	nb.epsilon = varSmoothing * maxFeatureVariance(X)
	if nb.epsilon == 0 {
		nb.epsilon = minEpsilon
	}
	total := float64(len(X))
	for c := range Classes {
		nb.classPrior[c] = nb.classCount[c] / total
		for j := range nb.variance[c] {
			if nb.classCount[c] > 0 {
				nb.variance[c][j] /= nb.classCount[c]
			}
			nb.variance[c][j] += nb.epsilon
		}
	}
	return nb, nil
}

// maxFeatureVariance 返回所有特征中最大的总体方差。
func maxFeatureVariance(X [][]float64) float64 {
	n := float64(len(X))
	var maxVar float64
	for j := range X[0] {
		var mean float64
		for _, row := range X {
			mean += row[j]
		}
		mean /= n
		var v float64
		for _, row := range X {
			d := row[j] - mean
			v += d * d
		}
		if v /= n; v > maxVar {
			maxVar = v
		}
	}
	return maxVar
}

// predictProba 返回每个类别的后验概率，和为 1。
func (nb *gaussianNB) predictProba(x []float64) ([]float64, error) {
	if len(x) != len(nb.theta[0]) {
		return nil, fmt.Errorf("特征维度为 %d, 期望 %d", len(x), len(nb.theta[0]))
	}
	jll := make([]float64, len(Classes))
	best := math.Inf(-1)
	for c := range Classes {
		if nb.classCount[c] == 0 {
			jll[c] = math.Inf(-1)
			continue
		}
		ll := math.Log(nb.classPrior[c])
		for j, v := range x {
			variance := nb.variance[c][j]
			d := v - nb.theta[c][j]
			ll -= 0.5 * (math.Log(2*math.Pi*variance) + d*d/variance)
		}
		jll[c] = ll
		if ll > best {
			best = ll
		}
	}
	if math.IsInf(best, -1) || math.IsNaN(best) {
		return nil, fmt.Errorf("无法计算后验概率")
	}

	var sum float64
	proba := make([]float64, len(Classes))
	for c, ll := range jll {
		if math.IsInf(ll, -1) {
			continue
		}
		proba[c] = math.Exp(ll - best)
		sum += proba[c]
	}
	for c := range proba {
		proba[c] /= sum
	}
	return proba, nil
}

// argmax 返回概率最大的类别，相同时取较小的标签。
func argmax(proba []float64) int {
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return Classes[best]
}
