// Command generate writes sample batch files under testdata/ for trying the
// batch command against the sandbox.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/currency"
)

// Sandbox test cards.
var cards = []string{
	"1111222233334444", // accepted
	"1111222233334444",
	"1111222233334444",
	"5555556778250000", // 3-D Secure
	"4000000000000002", // refused
}

func main() {
	lines := flag.Int("lines", 50, "number of operations")
	out := flag.String("out", filepath.Join("testdata", "sample_batch.csv"), "output file")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	w := batch.NewWriter(f, batch.DefaultDialect())
	header := []string{
		"OPERATIONTYPE", "ORDERID", "CLIENTIDENT", "CLIENTEMAIL", "DESCRIPTION",
		"AMOUNT", "CARDCODE", "CARDVALIDITYDATE", "CARDCVV", "CARDFULLNAME",
		"CLIENTIP", "CLIENTUSERAGENT", "VERSION",
	}
	if err := w.Write(header); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	validity := time.Now().AddDate(2, 0, 0).Format("01-06")
	for i := 1; i <= *lines; i++ {
		// EUR between 1.00 and 250.00.
		major := decimal.New(int64(100+rng.Intn(24900)), -2)
		minor, err := currency.ToMinor(major, "EUR")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		op := "payment"
		if rng.Float64() < 0.2 {
			op = "authorization"
		}
		id, _ := uuid.NewRandomFromReader(rng)
		client := fmt.Sprintf("client-%03d", 1+rng.Intn(20))

		record := []string{
			op,
			"sample-" + id.String()[:8],
			client,
			client + "@example.com",
			fmt.Sprintf("Sample order %d (%s EUR)", i, major.StringFixed(2)),
			fmt.Sprint(minor),
			cards[rng.Intn(len(cards))],
			validity,
			"123",
			"John Doe",
			fmt.Sprintf("192.0.2.%d", 1+rng.Intn(254)),
			"Mozilla/5.0",
			"2.0",
		}
		if err := w.Write(record); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d batch lines -> %s\n", *lines, *out)
}
