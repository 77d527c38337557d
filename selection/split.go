package selection

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Split holds row indices of the training and held-out subsets.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit partitions n rows. The test subset has round(testSize·n) rows
// taken from the front of a permutation seeded with seed, so the partition is
// identical for identical (n, testSize, seed).
func TrainTestSplit(n int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Round(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return Split{}, errors.NewValueError("TrainTestSplit", fmt.Sprintf(
			"with n_samples=%d and test_size=%v the resulting train set (%d) or test set (%d) would be empty",
			n, testSize, nTrain, nTest))
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return Split{
		Test:  append([]int(nil), perm[:nTest]...),
		Train: append([]int(nil), perm[nTest:]...),
	}, nil
}
