package search

import (
	"math"
	"sort"
)

// sparseVector 是按维度下标升序存储的稀疏向量。
// 求和始终按维度顺序进行，相同的向量得到逐位相同的结果。
type sparseVector struct {
	idx []int
	val []float64
}

func (v sparseVector) empty() bool {
	return len(v.idx) == 0
}

// dot 按维度顺序归并两个向量求内积。
func (v sparseVector) dot(other sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.idx) && j < len(other.idx) {
		switch {
		case v.idx[i] < other.idx[j]:
			i++
		case v.idx[i] > other.idx[j]:
			j++
		default:
			sum += v.val[i] * other.val[j]
			i++
			j++
		}
	}
	return sum
}

func (v sparseVector) normalize() {
	var norm float64
	for _, w := range v.val {
		norm += w * w
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v.val {
		v.val[i] /= norm
	}
}

// vectorizer 是拟合后的 TF-IDF 模型：词表与每个维度的 idf。
// 拟合后只读，可被多个读者共享。
type vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// fitVectorizer 在已切分的语料上构建词表与 idf。
// 词表按语料总词频保留前 maxFeatures 个词 (频次相同按字典序)，维度按字典序分配。
// idf 使用平滑公式 ln((1+n)/(1+df)) + 1。
func fitVectorizer(corpus [][]string, maxFeatures int) *vectorizer {
	freq := make(map[string]int)
	df := make(map[string]int)
	for _, docTerms := range corpus {
		seen := make(map[string]struct{}, len(docTerms))
		for _, term := range docTerms {
			freq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	vocab := make([]string, 0, len(freq))
	for term := range freq {
		vocab = append(vocab, term)
	}
	if maxFeatures > 0 && len(vocab) > maxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			if freq[vocab[i]] != freq[vocab[j]] {
				return freq[vocab[i]] > freq[vocab[j]]
			}
			return vocab[i] < vocab[j]
		})
		vocab = vocab[:maxFeatures]
	}
	sort.Strings(vocab)

	n := float64(len(corpus))
	v := &vectorizer{
		vocabulary: make(map[string]int, len(vocab)),
		idf:        make([]float64, len(vocab)),
	}
	for i, term := range vocab {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// transform 把词序列投影到拟合时固定的词表空间，未登录词被丢弃。
func (v *vectorizer) transform(docTerms []string) sparseVector {
	counts := make(map[int]float64)
	for _, term := range docTerms {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	vec := sparseVector{idx: make([]int, 0, len(counts)), val: make([]float64, 0, len(counts))}
	for idx := range counts {
		vec.idx = append(vec.idx, idx)
	}
	sort.Ints(vec.idx)
	for _, idx := range vec.idx {
		vec.val = append(vec.val, counts[idx]*v.idf[idx])
	}
	vec.normalize()
	return vec
}
