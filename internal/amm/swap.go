package amm

import (
	"fmt"
	"math/big"

	"liquidityQuoter/internal/amount"
)

var (
	bigOne = big.NewInt(1)
	bigBps = big.NewInt(BpsDenominator)
)

// QuoteExactInput returns the output of selling amountIn of assetIn into p:
//
//	aIF = amountIn * (10000 - fee)
//	out = floor(aIF * reserveOut / (reserveIn*10000 + aIF))
func QuoteExactInput(p Pool, assetIn Asset, amountIn amount.Amount) (amount.Amount, error) {
	assetOut, err := p.Other(assetIn)
	if err != nil {
		return amount.Amount{}, err
	}
	if amountIn.Decimals() != assetIn.Decimals {
		return amount.Amount{}, fmt.Errorf("%w: input has %d decimals, %s has %d",
			ErrScaleMismatch, amountIn.Decimals(), assetIn.Label(), assetIn.Decimals)
	}
	if amountIn.IsZero() {
		return amount.Amount{}, ErrZeroInput
	}
	reserveIn, reserveOut, err := p.directed(assetIn, assetOut)
	if err != nil {
		return amount.Amount{}, err
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return amount.Amount{}, fmt.Errorf("%w: %s", ErrZeroReserves, p.Key())
	}

	out := getAmountOut(amountIn.Big(), reserveIn.Big(), reserveOut.Big(), p.FeeBps)
	if out.Sign() == 0 {
		return amount.Amount{}, fmt.Errorf("%w: %s %s yields no output", ErrInsufficientAmount,
			amountIn.String(), assetIn.Label())
	}
	return amount.FromRaw(out, reserveOut.Decimals())
}

// QuoteExactOutput returns the input of assetIn needed to buy amountOut of
// assetOut from p:
//
//	in = floor(reserveIn * out * 10000 / ((reserveOut - out) * (10000 - fee))) + 1
func QuoteExactOutput(p Pool, assetOut Asset, amountOut amount.Amount) (amount.Amount, error) {
	assetIn, err := p.Other(assetOut)
	if err != nil {
		return amount.Amount{}, err
	}
	if amountOut.Decimals() != assetOut.Decimals {
		return amount.Amount{}, fmt.Errorf("%w: output has %d decimals, %s has %d",
			ErrScaleMismatch, amountOut.Decimals(), assetOut.Label(), assetOut.Decimals)
	}
	if amountOut.IsZero() {
		return amount.Amount{}, ErrZeroInput
	}
	reserveIn, reserveOut, err := p.directed(assetIn, assetOut)
	if err != nil {
		return amount.Amount{}, err
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return amount.Amount{}, fmt.Errorf("%w: %s", ErrZeroReserves, p.Key())
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return amount.Amount{}, fmt.Errorf("%w: want %s of %s, reserve %s", ErrInsufficientLiquidity,
			amountOut.String(), assetOut.Label(), reserveOut.String())
	}

	in := getAmountIn(amountOut.Big(), reserveIn.Big(), reserveOut.Big(), p.FeeBps)
	return amount.FromRaw(in, reserveIn.Decimals())
}

func getAmountOut(in, reserveIn, reserveOut *big.Int, feeBps uint32) *big.Int {
	inWithFee := new(big.Int).Mul(in, feeMultiplier(feeBps))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, bigBps)
	denominator.Add(denominator, inWithFee)
	return numerator.Quo(numerator, denominator)
}

func getAmountIn(out, reserveIn, reserveOut *big.Int, feeBps uint32) *big.Int {
	numerator := new(big.Int).Mul(reserveIn, out)
	numerator.Mul(numerator, bigBps)
	denominator := new(big.Int).Sub(reserveOut, out)
	denominator.Mul(denominator, feeMultiplier(feeBps))
	numerator.Quo(numerator, denominator)
	return numerator.Add(numerator, bigOne)
}

func feeMultiplier(feeBps uint32) *big.Int {
	return big.NewInt(int64(BpsDenominator - feeBps))
}
