package classifier

import (
	"math"
	"math/rand"
)

// trainTestSplit 用固定种子打乱下标后切分：前 ceil(ratio*n) 个为测试集，其余为训练集。
// 相同的 n、ratio 和 seed 总是得到相同的划分。
func trainTestSplit(n int, ratio float64, seed int64) (train, test []int) {
	testSize := int(math.Ceil(ratio * float64(n)))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[testSize:], perm[:testSize]
}
