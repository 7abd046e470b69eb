package routing

import (
	"math/rand"
	"testing"
)

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, g := range order {
		if g < 0 || g >= n || seen[g] {
			return false
		}
		seen[g] = true
	}
	return true
}

func TestForEachPermutation(t *testing.T) {
	for n := 1; n <= 5; n++ {
		count := 0
		seen := make(map[[5]int]bool)
		forEachPermutation(identityOrder(n), func(p []int) {
			var key [5]int
			copy(key[:], p)
			seen[key] = true
			count++
		})

		want := 1
		for i := 2; i <= n; i++ {
			want *= i
		}
		if count != want || len(seen) != want {
			t.Errorf("n=%d: 生成 %d 个排列（%d 个不同）, expected %d", n, count, len(seen), want)
		}
	}
}

func TestExhaustiveOrder_RejectsLargeInput(t *testing.T) {
	dm := make(distanceMatrix, exhaustiveLimit+1)
	for i := range dm {
		dm[i] = make([]float64, exhaustiveLimit+1)
	}
	if _, err := exhaustiveOrder(dm); err == nil {
		t.Error("超过穷举上限应返回错误")
	}
}

func TestOrderCrossover_Valid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(25)
		p1 := rng.Perm(n)
		p2 := rng.Perm(n)

		child := orderCrossover(p1, p2, rng)
		if !isPermutation(child, n) {
			t.Fatalf("交叉结果不是合法排列: p1=%v p2=%v child=%v", p1, p2, child)
		}

		swapMutation(child, rng)
		if !isPermutation(child, n) {
			t.Fatalf("变异结果不是合法排列: %v", child)
		}
	}
}

func TestOrderCrossover_KeepsSegment(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	p1 := []int{0, 1, 2, 3, 4, 5, 6, 7}
	p2 := []int{7, 6, 5, 4, 3, 2, 1, 0}

	for trial := 0; trial < 50; trial++ {
		child := orderCrossover(p1, p2, rng)
		// 来自父代1的基因保持原位，至少存在一个
		fixed := 0
		for i, g := range child {
			if g == p1[i] {
				fixed++
			}
		}
		if fixed == 0 {
			t.Fatalf("子代未保留父代1片段: %v", child)
		}
	}
}

func TestLocalSearchOrder_NotWorse(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	for trial := 0; trial < 30; trial++ {
		n := 6 + rng.Intn(7)
		wps := makeWaypoints(rng, n)
		dm := newDistanceMatrix(wps)
		initial := rng.Perm(n)

		got := localSearchOrder(dm, initial)
		if !isPermutation(got, n) {
			t.Fatalf("局部搜索结果不是合法排列: %v", got)
		}
		if dm.pathLength(got) > dm.pathLength(initial) {
			t.Errorf("trial %d: 局部搜索使路线变长", trial)
		}
	}
}

func TestGeneticOrder_NotWorseThanSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	wps := makeWaypoints(rng, 20)
	dm := newDistanceMatrix(wps)
	initial := identityOrder(20)

	got := geneticOrder(dm, initial, rand.New(rand.NewSource(1)))
	if !isPermutation(got, 20) {
		t.Fatalf("遗传算法结果不是合法排列: %v", got)
	}
	if dm.pathLength(got) > dm.pathLength(initial) {
		t.Error("遗传算法结果比初始个体更差")
	}
}
