package inventory

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/logistock/logistock/internal/shared"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustProduct(t *testing.T, id int64, name, price string, qty int) *Product {
	t.Helper()
	p, err := NewProduct(ProductParams{
		ID:        id,
		Name:      name,
		Price:     dec(price),
		Quantity:  qty,
		Category:  "General",
		EntryDate: date("2024-01-15"),
	})
	require.NoError(t, err)
	return p
}

func TestNewProductDefaults(t *testing.T) {
	fixClock(t, time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC))

	p, err := NewProduct(ProductParams{ID: 1, Name: "Widget", Price: dec("7.5"), Quantity: 3})
	require.NoError(t, err)
	require.True(t, p.BasePrice().Equal(dec("7.5")))
	require.Equal(t, date("2024-03-09"), p.EntryDate())
	require.Nil(t, p.ExitDate())
	require.Len(t, p.History(), 1)
	require.Equal(t, ReasonCreated, p.History()[0].Reason)
	require.Equal(t, 3, p.History()[0].Quantity)
}

func TestNewProductValidation(t *testing.T) {
	cases := map[string]ProductParams{
		"empty name":     {ID: 1, Name: "  ", Price: dec("1")},
		"zero price":     {ID: 1, Name: "x", Price: dec("0")},
		"negative price": {ID: 1, Name: "x", Price: dec("-2")},
		"negative base":  {ID: 1, Name: "x", Price: dec("2"), BasePrice: dec("-1")},
		"negative qty":   {ID: 1, Name: "x", Price: dec("2"), Quantity: -1},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProduct(params)
			require.ErrorIs(t, err, shared.ErrInvalidArgument)
		})
	}
}

func TestRegisterEntryAndExit(t *testing.T) {
	fixClock(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	p := mustProduct(t, 1, "Widget", "10", 5)

	require.NoError(t, p.RegisterEntry(3))
	require.Equal(t, 8, p.Quantity())

	require.NoError(t, p.RegisterExit(2))
	require.Equal(t, 6, p.Quantity())
	require.Nil(t, p.ExitDate())

	err := p.RegisterExit(7)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
	require.Equal(t, 6, p.Quantity())

	require.ErrorIs(t, p.RegisterEntry(0), shared.ErrInvalidArgument)
	require.ErrorIs(t, p.RegisterExit(-1), shared.ErrInvalidArgument)
	require.Equal(t, 6, p.Quantity())

	reasons := []HistoryReason{}
	for _, h := range p.History() {
		reasons = append(reasons, h.Reason)
	}
	require.Equal(t, []HistoryReason{ReasonCreated, ReasonEntry, ReasonExit}, reasons)
}

func TestRegisterEntryRejectsOverflow(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 5)

	require.ErrorIs(t, p.RegisterEntry(math.MaxInt), shared.ErrInvalidArgument)
	require.Equal(t, 5, p.Quantity())
	require.Len(t, p.History(), 1)

	require.NoError(t, p.RegisterEntry(math.MaxInt-5))
	require.Equal(t, math.MaxInt, p.Quantity())
	require.ErrorIs(t, p.RegisterEntry(1), shared.ErrInvalidArgument)
	require.Equal(t, math.MaxInt, p.Quantity())
}

func TestExitToZeroStampsExitDate(t *testing.T) {
	fixClock(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	p := mustProduct(t, 1, "Widget", "10", 4)

	require.NoError(t, p.RegisterExit(4))
	require.Equal(t, 0, p.Quantity())
	require.NotNil(t, p.ExitDate())
	require.Equal(t, date("2024-05-01"), *p.ExitDate())

	require.NoError(t, p.RegisterEntry(1))
	require.Nil(t, p.ExitDate())
}

func TestPricing(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 1)

	require.NoError(t, p.SetPrice(dec("12")))
	require.True(t, p.Price().Equal(dec("12")))
	require.True(t, p.BasePrice().Equal(dec("10")))

	require.ErrorIs(t, p.SetPrice(dec("0")), shared.ErrInvalidArgument)
	require.True(t, p.Price().Equal(dec("12")))

	require.NoError(t, p.SetBasePrice(dec("20")))
	require.True(t, p.Price().Equal(dec("20")))
	require.True(t, p.BasePrice().Equal(dec("20")))
	require.ErrorIs(t, p.SetBasePrice(dec("-1")), shared.ErrInvalidArgument)

	require.NoError(t, p.ApplyDiscount(dec("25")))
	require.True(t, p.Price().Equal(dec("15")))
	require.True(t, p.BasePrice().Equal(dec("20")))

	p.ResetPrice()
	require.True(t, p.Price().Equal(dec("20")))
}

func TestApplyDiscountIsAnchoredToBasePrice(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 1)
	for pct := int64(0); pct < 100; pct++ {
		require.NoError(t, p.ApplyDiscount(decimal.NewFromInt(pct)))
		want := decimal.NewFromInt(1000 - 10*pct).Div(decimal.NewFromInt(100))
		require.Truef(t, p.Price().Equal(want), "pct %d: got %s want %s", pct, p.Price(), want)
	}
	require.NoError(t, p.ApplyDiscount(dec("10")))
	require.NoError(t, p.ApplyDiscount(dec("10")))
	require.True(t, p.Price().Equal(dec("9")))
}

func TestApplyDiscountRejectsOutOfRange(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 1)
	require.NoError(t, p.ApplyDiscount(dec("50")))

	for _, pct := range []string{"-1", "100.5", "100"} {
		require.ErrorIs(t, p.ApplyDiscount(dec(pct)), shared.ErrInvalidArgument, pct)
	}
	require.True(t, p.Price().Equal(dec("5")))
}

func TestIncrementalDiscountCompounds(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 1)
	require.NoError(t, p.ApplyIncrementalDiscount(dec("10")))
	require.NoError(t, p.ApplyIncrementalDiscount(dec("10")))
	require.True(t, p.Price().Equal(dec("8.1")), p.Price().String())
	require.True(t, p.BasePrice().Equal(dec("10")))

	cases := []struct {
		pct   string
		times int
	}{
		{"0", 1},
		{"0", 4},
		{"10", 3},
		{"12.5", 2},
		{"33.3", 5},
		{"50", 6},
		{"99.99", 2},
	}
	for _, tc := range cases {
		p := mustProduct(t, 1, "Widget", "19.99", 1)
		for i := 0; i < tc.times; i++ {
			require.NoError(t, p.ApplyIncrementalDiscount(dec(tc.pct)))
		}
		factor := hundred.Sub(dec(tc.pct)).Div(hundred)
		want := dec("19.99").Mul(factor.Pow(decimal.NewFromInt(int64(tc.times))))
		require.True(t, p.Price().Equal(want), "pct=%s times=%d got=%s want=%s", tc.pct, tc.times, p.Price(), want)
		require.True(t, p.BasePrice().Equal(dec("19.99")))
	}
}

func TestDescribe(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "7.5", 3)
	require.Equal(t,
		"ID: 1, Name: Widget, Price: $7.50, Quantity: 3, Category: General, Entry Date: 2024-01-15, Exit Date: N/A",
		p.String())

	exit := date("2024-02-01")
	p.exitDate = &exit
	require.Contains(t, p.Describe(), "Exit Date: 2024-02-01")
}

func TestCloneIsDeep(t *testing.T) {
	p := mustProduct(t, 1, "Widget", "10", 2)
	require.NoError(t, p.RegisterExit(2))
	c := p.Clone()

	require.NoError(t, p.RegisterEntry(5))
	require.Equal(t, 0, c.Quantity())
	require.NotNil(t, c.ExitDate())
	require.Len(t, c.History(), 2)
	require.Len(t, p.History(), 3)
}
