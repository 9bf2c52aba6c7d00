package domain

import (
	"math"
	"sort"
)

// Helpers estadísticos sobre float64. Todos devuelven 0 con entrada vacía.

// Mean devuelve la media aritmética.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median devuelve la mediana sin modificar el slice de entrada.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev devuelve la desviación estándar poblacional (divide por n).
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// CoefficientOfVariation devuelve stdev/mean. Con media no positiva devuelve 1.
func CoefficientOfVariation(xs []float64) float64 {
	m := Mean(xs)
	if m <= 0 {
		return 1
	}
	return StdDev(xs) / m
}

// Clamp limita v al rango [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
