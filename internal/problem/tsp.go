package problem

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/evolution"
)

type City struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// TravelingSalesman 旅行商问题，基因型是城市下标的排列
type TravelingSalesman struct {
	cities    []City
	distances [][]float64
}

// NewTravelingSalesman 预先计算欧氏距离矩阵
func NewTravelingSalesman(cities []City) *TravelingSalesman {
	n := len(cities)
	distances := make([][]float64, n)
	for i := range distances {
		distances[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(cities[i].X-cities[j].X, cities[i].Y-cities[j].Y)
			distances[i][j] = d
			distances[j][i] = d
		}
	}

	return &TravelingSalesman{cities: cities, distances: distances}
}

// RandomCities 在 [0, size) x [0, size) 的平面上随机生成 n 个城市
func RandomCities(n int, size float64, seed int64) []City {
	rng := rand.New(rand.NewSource(seed))
	cities := make([]City, n)
	for i := range cities {
		cities[i] = City{
			Name: fmt.Sprintf("C%d", i),
			X:    rng.Float64() * size,
			Y:    rng.Float64() * size,
		}
	}
	return cities
}

func (p *TravelingSalesman) Dimension() int {
	return len(p.cities)
}

func (p *TravelingSalesman) Cities() []City {
	return p.cities
}

// Distance 城市 i 和 j 之间的欧氏距离
func (p *TravelingSalesman) Distance(i, j int) float64 {
	return p.distances[i][j]
}

func (p *TravelingSalesman) Evaluate(g evolution.Genotype) (float64, error) {
	tour, err := intGenes(g, len(p.cities))
	if err != nil {
		return 0, err
	}
	return p.TourLength(tour), nil
}

// TourLength 闭合回路的总长度，最后一个城市回到第一个城市
// 基因型由排列编码保证合法，这里不再检查重复
func (p *TravelingSalesman) TourLength(tour []int) float64 {
	if len(tour) == 0 {
		return 0
	}

	total := p.distances[tour[len(tour)-1]][tour[0]]
	for i := 1; i < len(tour); i++ {
		total += p.distances[tour[i-1]][tour[i]]
	}
	return total
}
