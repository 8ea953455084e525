package groundtruth

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/format"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/layout"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/render"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

func setupEngine(t *testing.T, spec *config.ReceiptSpec) (*content.Builder, *layout.Engine) {
	t.Helper()

	corpus, err := content.LoadCorpus("")
	require.NoError(t, err)
	builder, err := content.NewBuilder(spec.Document.Content, corpus, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	fonts, err := render.LoadFonts("", "")
	require.NoError(t, err)
	t.Cleanup(func() { fonts.Close() })

	return builder, layout.NewEngine(spec.Document.Content, fonts)
}

func TestSynchronize_AllPriceStyles(t *testing.T) {
	for _, style := range []string{"standard", "no_spaces", "hybrid"} {
		for _, sep := range []string{",", "."} {
			t.Run(style+sep, func(t *testing.T) {
				spec := config.DefaultReceiptSpec()
				spec.Document.Content.Formatting.PriceFormats = []config.WeightedValue{{Value: style, Weight: 1}}
				spec.Document.Content.Formatting.DecimalSeparators = []config.WeightedValue{{Value: sep, Weight: 1}}
				builder, engine := setupEngine(t, spec)

				s := rng.New(42)
				for i := 0; i < 30; i++ {
					c, err := builder.Build(s)
					require.NoError(t, err)
					l, err := engine.Arrange(c, 320, 900, s)
					require.NoError(t, err)

					res, err := Synchronize(c, l)
					require.NoError(t, err)

					sum := decimal.Zero
					for _, p := range res.Data.Products {
						sum = sum.Add(p.TotalPrice.Decimal)
						assert.Contains(t, res.Label, format.Amount(p.TotalPrice.Decimal, sep))
					}
					assert.True(t, sum.Round(2).Equal(res.Data.Total.Decimal))
					assert.Contains(t, res.Label, c.TotalText())
				}
			})
		}
	}
}

func TestSynchronize_ReadingOrder(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	builder, engine := setupEngine(t, spec)
	s := rng.New(7)

	c, err := builder.Build(s)
	require.NoError(t, err)
	l, err := engine.Arrange(c, 320, 900, s)
	require.NoError(t, err)

	res, err := Synchronize(c, l)
	require.NoError(t, err)

	require.NotEmpty(t, res.Boxes)
	assert.Equal(t, c.ShopName, res.Boxes[0].Text)
	assert.True(t, strings.HasPrefix(res.Label, c.ShopName+" "))
	for i := 1; i < len(res.Boxes); i++ {
		prev, cur := res.Boxes[i-1].Rect.Min, res.Boxes[i].Rect.Min
		assert.True(t, prev.Y < cur.Y || (prev.Y == cur.Y && prev.X <= cur.X))
	}
}

func TestVerify_DetectsDesync(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	builder, engine := setupEngine(t, spec)
	s := rng.New(9)

	c, err := builder.Build(s)
	require.NoError(t, err)
	l, err := engine.Arrange(c, 320, 900, s)
	require.NoError(t, err)
	res, err := Synchronize(c, l)
	require.NoError(t, err)

	tampered := res.Data
	tampered.Products = append([]Product(nil), res.Data.Products...)
	tampered.Products[0].TotalPrice = NewAmount(tampered.Products[0].TotalPrice.Add(decimal.NewFromInt(1)))
	assert.ErrorIs(t, Verify(c, l.Runs(), tampered), ErrDesync)

	wrongTotal := res.Data
	wrongTotal.Total = NewAmount(res.Data.Total.Add(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, Verify(c, l.Runs(), wrongTotal), ErrDesync)
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Amount `json:"total"`
	}{NewAmount(decimal.RequireFromString("7.7049"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 7.7}`, string(b))

	var back struct {
		Total Amount `json:"total"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Total.Equal(decimal.RequireFromString("7.70")))
}

func TestStructured_QuantityRounded(t *testing.T) {
	c := &content.ReceiptContent{
		Items: []content.LineItem{
			content.NewLineItem("X", decimal.RequireFromString("1.255"), "kg", decimal.RequireFromString("2.00"), "C", "5%"),
		},
	}
	c.Total = content.SumTotals(c.Items)

	d := structured(c)
	assert.Equal(t, "1.26", d.Products[0].Quantity.String())
}

func TestSynchronize_DateAndNumberMatchRenderedText(t *testing.T) {
	spec := config.DefaultReceiptSpec()
	builder, engine := setupEngine(t, spec)
	s := rng.New(11)

	for i := 0; i < 20; i++ {
		c, err := builder.Build(s)
		require.NoError(t, err)
		l, err := engine.Arrange(c, 320, 900, s)
		require.NoError(t, err)
		res, err := Synchronize(c, l)
		require.NoError(t, err)

		var date, number string
		for _, r := range l.Runs() {
			switch r.Field {
			case layout.FieldDate:
				date = r.Text
			case layout.FieldNumber:
				number = r.Text
			}
		}
		require.NotEmpty(t, date)
		require.NotEmpty(t, number)
		assert.Equal(t, date, res.Data.Date)
		assert.Equal(t, number, res.Data.Number)
		assert.Equal(t, c.NumberText(), res.Data.Number)
	}
}

func TestVerify_PriceFieldsMatchedWhole(t *testing.T) {
	items := []content.LineItem{
		content.NewLineItem("WODA", decimal.NewFromInt(1), "szt.", decimal.RequireFromString("1.00"), "A", "23%"),
	}
	c := &content.ReceiptContent{
		Format: format.Choices{
			MultiplySign: "x", Unit: "szt", DecimalSep: ",",
			PriceStyle: format.PriceNoSpaces, DateStyle: format.DateDot,
			SumLabel: "SUMA PLN:", NumberTemplate: "Paragon nr {number}",
		},
		Currency: "PLN",
		Items:    items,
		Total:    content.SumTotals(items),
	}
	d := structured(c)
	line := items[0].PriceLine(c.Format)

	runs := func(price string) []layout.Run {
		return []layout.Run{
			{Text: "WODA", Field: layout.FieldProductName, Item: 0},
			{Text: price, Field: layout.FieldProductPrice, Item: 0},
		}
	}

	for _, style := range []format.PriceStyle{format.PriceStandard, format.PriceNoSpaces, format.PriceHybrid} {
		require.NoError(t, Verify(c, runs(line.Render(style)), d), style)

		wrongUnit := line
		wrongUnit.UnitPrice = "1" + line.UnitPrice
		assert.ErrorIs(t, Verify(c, runs(wrongUnit.Render(style)), d), ErrDesync, style)

		wrongTotal := line
		wrongTotal.Total = "1" + line.Total
		assert.ErrorIs(t, Verify(c, runs(wrongTotal.Render(style)), d), ErrDesync, style)
	}

	d.Date = "Data: 01-01-2000 00:00"
	dated := append(runs(line.Render(format.PriceStandard)), layout.Run{Text: c.DateText(), Field: layout.FieldDate, Item: -1})
	assert.ErrorIs(t, Verify(c, dated, d), ErrDesync)
}
