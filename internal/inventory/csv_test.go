package inventory

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logistock/logistock/internal/shared"
)

const csvHeader = "id,name,price,base_price,quantity,category,entry_date,exit_date\n"

func TestWriteCSVLayout(t *testing.T) {
	p := mustProduct(t, 7, "Widget", "7.5", 3)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*Product{p}))
	require.Equal(t, csvHeader+"7,Widget,7.5,7.5,3,General,2024-01-15,\n", buf.String())
}

func TestReadCSVDatePolicy(t *testing.T) {
	fixClock(t, time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))
	input := csvHeader +
		"1,NoEntry,1,1,1,c,,\n" +
		"2,BadEntry,1,1,1,c,31/01/2024,\n" +
		"3,BadExit,1,1,0,c,2024-01-01,soon\n" +
		"4,Fine,1,1,0,c,2024-01-01,2024-02-01\n"

	products, warnings, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, products, 4)
	require.Len(t, warnings, 3)
	require.True(t, strings.HasPrefix(warnings[0], "line 2:"))
	require.True(t, strings.HasPrefix(warnings[2], "line 4:"))

	require.Equal(t, date("2024-06-30"), products[0].EntryDate())
	require.Equal(t, date("2024-06-30"), products[1].EntryDate())
	require.Nil(t, products[2].ExitDate())
	require.Equal(t, date("2024-02-01"), *products[3].ExitDate())
	require.Equal(t, ReasonLoaded, products[3].History()[0].Reason)
}

func TestReadCSVHeaderByName(t *testing.T) {
	input := "\ufeffexit_date,category,entry_date,quantity,base_price,price,name,id\n" +
		",Tools, 2024-01-01 ,4,10,8, Hammer ,9\n"
	products, warnings, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, products, 1)

	p := products[0]
	require.Equal(t, int64(9), p.ID())
	require.Equal(t, " Hammer ", p.Name())
	require.True(t, p.Price().Equal(dec("8")))
	require.True(t, p.BasePrice().Equal(dec("10")))
	require.Equal(t, date("2024-01-01"), p.EntryDate())
}

func TestReadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "id,name,price\n1,a,1\n",
		"bad id":         csvHeader + "one,a,1,1,1,c,2024-01-01,\n",
		"bad price":      csvHeader + "1,a,cheap,1,1,c,2024-01-01,\n",
		"bad quantity":   csvHeader + "1,a,1,1,many,c,2024-01-01,\n",
		"zero base":      csvHeader + "1,a,1,0,1,c,2024-01-01,\n",
		"negative qty":   csvHeader + "1,a,1,1,-3,c,2024-01-01,\n",
		"empty name":     csvHeader + "1,,1,1,1,c,2024-01-01,\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ReadCSV(strings.NewReader(input))
			require.ErrorIs(t, err, shared.ErrIOFailure)
		})
	}
}

func TestReadCSVReportsLine(t *testing.T) {
	input := csvHeader + "1,a,1,1,1,c,2024-01-01,\n2,b,x,1,1,c,2024-01-01,\n"
	_, _, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestReadCSVEmptyInput(t *testing.T) {
	products, warnings, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, products)
	require.Empty(t, warnings)

	products, _, err = ReadCSV(strings.NewReader(csvHeader))
	require.NoError(t, err)
	require.Empty(t, products)
}
