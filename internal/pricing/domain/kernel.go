package domain

import (
	"fmt"
	"math"
)

// Kernel 各向异性乘积核：k(x,y) = σ² · Π_i ρ(|x_i−y_i| / ℓ_i)。
// 支持平方指数与 Matérn-5/2 两个核族，二者对坐标均二阶可微，
// 因此可用于闭式的后验导数（Greeks）估计。
type Kernel struct {
	Family       KernelFamily
	Lengthscales []float64
	Variance     float64
}

func newKernel(family KernelFamily, lengthscales []float64, variance float64) (*Kernel, error) {
	switch family {
	case KernelSquaredExp, KernelMatern52:
	default:
		return nil, fmt.Errorf("%w: unknown kernel family %q", ErrInvalidConfig, family)
	}
	return &Kernel{
		Family:       family,
		Lengthscales: append([]float64(nil), lengthscales...),
		Variance:     variance,
	}, nil
}

// Value 核函数取值。
func (k *Kernel) Value(a, b []float64) float64 {
	v := k.Variance
	for i := range a {
		v *= corr1(k.Family, a[i]-b[i], k.Lengthscales[i])
	}
	return v
}

// PartialX 对第 coord 个测试坐标的偏导：∂k(a,b)/∂a_coord。
// 乘积核下只需对第 coord 维因子求导，其余因子不变。
func (k *Kernel) PartialX(a, b []float64, coord int) float64 {
	v := k.Variance
	for i := range a {
		if i == coord {
			v *= dcorr1(k.Family, a[i]-b[i], k.Lengthscales[i])
		} else {
			v *= corr1(k.Family, a[i]-b[i], k.Lengthscales[i])
		}
	}
	return v
}

// DerivVariance 导数过程的先验方差：σ² · (−ρ''(0)) / ℓ²（其余维因子在 0 处取 1）。
func (k *Kernel) DerivVariance(coord int) float64 {
	return k.Variance * ddcorr0(k.Family, k.Lengthscales[coord])
}

// corr1 一维相关函数 ρ(u; ℓ)，ρ(0)=1。
func corr1(family KernelFamily, u, ell float64) float64 {
	switch family {
	case KernelSquaredExp:
		t := u / ell
		return math.Exp(-0.5 * t * t)
	case KernelMatern52:
		a := math.Sqrt(5) * math.Abs(u) / ell
		return (1 + a + a*a/3) * math.Exp(-a)
	}
	return 0
}

// dcorr1 一维相关函数对 u 的导数 dρ/du。
func dcorr1(family KernelFamily, u, ell float64) float64 {
	switch family {
	case KernelSquaredExp:
		return -u / (ell * ell) * corr1(family, u, ell)
	case KernelMatern52:
		a := math.Sqrt(5) * math.Abs(u) / ell
		return -(5 * u / (3 * ell * ell)) * (1 + a) * math.Exp(-a)
	}
	return 0
}

// ddcorr0 −ρ''(0)，即一维导数过程在同点的先验方差因子。
func ddcorr0(family KernelFamily, ell float64) float64 {
	switch family {
	case KernelSquaredExp:
		return 1 / (ell * ell)
	case KernelMatern52:
		return 5 / (3 * ell * ell)
	}
	return 0
}
