package routing

import (
	"fmt"
	"math/rand"

	apperrors "github.com/paiban/homevisit/pkg/errors"
)

// exhaustiveOrder 枚举全部排列，返回总距离最短的顺序
// 仅用于 n <= exhaustiveLimit
func exhaustiveOrder(dm distanceMatrix) ([]int, error) {
	n := len(dm)
	if n > exhaustiveLimit {
		return nil, apperrors.New(apperrors.CodeInternal,
			fmt.Sprintf("穷举策略只支持 %d 个以内途经点，实际 %d", exhaustiveLimit, n))
	}

	best := identityOrder(n)
	bestDist := dm.pathLength(best)

	forEachPermutation(identityOrder(n), func(perm []int) {
		if d := dm.pathLength(perm); d < bestDist {
			bestDist = d
			copy(best, perm)
		}
	})

	return best, nil
}

// forEachPermutation Heap 算法原地生成全部排列
func forEachPermutation(a []int, visit func([]int)) {
	n := len(a)
	c := make([]int, n)
	visit(a)

	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			visit(a)
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}

// localSearchOrder 首次改进的两两交换爬山，最多 2n 次迭代
func localSearchOrder(dm distanceMatrix, initial []int) []int {
	n := len(initial)
	current := make([]int, n)
	copy(current, initial)
	currentDist := dm.pathLength(current)

	for iter := 0; iter < 2*n; iter++ {
		improved := false

	search:
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				current[i], current[j] = current[j], current[i]
				if d := dm.pathLength(current); d < currentDist {
					currentDist = d
					improved = true
					break search
				}
				current[i], current[j] = current[j], current[i]
			}
		}

		if !improved {
			break
		}
	}

	return current
}

// 遗传算法参数
const (
	maxPopulation  = 50
	maxGenerations = 100
	tournamentSize = 3
	mutationRate   = 0.1
)

type individual struct {
	order   []int
	fitness float64
}

func newIndividual(dm distanceMatrix, order []int) individual {
	return individual{order: order, fitness: 1 / (dm.pathLength(order) + 1)}
}

// geneticOrder 遗传算法：锦标赛选择、顺序交叉与交换变异
// 初始种群包含输入顺序，返回历代最优个体
func geneticOrder(dm distanceMatrix, initial []int, rng *rand.Rand) []int {
	n := len(initial)
	popSize := min(maxPopulation, 4*n)
	generations := min(maxGenerations, 2*n)

	population := make([]individual, popSize)
	seed := make([]int, n)
	copy(seed, initial)
	population[0] = newIndividual(dm, seed)
	for i := 1; i < popSize; i++ {
		perm := make([]int, n)
		copy(perm, initial)
		rng.Shuffle(n, func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		population[i] = newIndividual(dm, perm)
	}

	best := fittest(population)

	for g := 0; g < generations; g++ {
		next := make([]individual, 0, popSize)
		next = append(next, best)

		for len(next) < popSize {
			p1 := tournament(population, rng)
			p2 := tournament(population, rng)
			child := orderCrossover(p1.order, p2.order, rng)
			if rng.Float64() < mutationRate {
				swapMutation(child, rng)
			}
			next = append(next, newIndividual(dm, child))
		}

		population = next
		if cand := fittest(population); cand.fitness > best.fitness {
			best = cand
		}
	}

	return best.order
}

func fittest(population []individual) individual {
	best := population[0]
	for _, ind := range population[1:] {
		if ind.fitness > best.fitness {
			best = ind
		}
	}
	return best
}

func tournament(population []individual, rng *rand.Rand) individual {
	best := population[rng.Intn(len(population))]
	for i := 1; i < tournamentSize; i++ {
		cand := population[rng.Intn(len(population))]
		if cand.fitness > best.fitness {
			best = cand
		}
	}
	return best
}

// orderCrossover 顺序交叉（OX）：复制父代1的连续片段，其余位置按父代2顺序填充
// 通过 used 标记保证子代是合法排列
func orderCrossover(p1, p2 []int, rng *rand.Rand) []int {
	n := len(p1)
	child := make([]int, n)
	if n == 0 {
		return child
	}

	start := rng.Intn(n)
	end := rng.Intn(n)
	if start > end {
		start, end = end, start
	}

	used := make([]bool, n)
	for i := start; i <= end; i++ {
		child[i] = p1[i]
		used[p1[i]] = true
	}

	pos := 0
	for _, gene := range p2 {
		if used[gene] {
			continue
		}
		for pos >= start && pos <= end {
			pos++
		}
		child[pos] = gene
		used[gene] = true
		pos++
	}

	return child
}

// swapMutation 随机交换两个位置
func swapMutation(order []int, rng *rand.Rand) {
	if len(order) < 2 {
		return
	}
	i := rng.Intn(len(order))
	j := rng.Intn(len(order))
	order[i], order[j] = order[j], order[i]
}
