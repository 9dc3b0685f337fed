package watchlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/97Cweb/package-scraper/workers/orders/models"
)

// Review walks the watch list and asks, one order at a time, whether to
// force it to archive. Answers are read line by line from in; anything
// other than y/yes leaves the record alone. Returns the full record set
// with overrides applied and the number of records archived.
func Review(in io.Reader, out io.Writer, records []models.OrderRecord) ([]models.OrderRecord, int) {
	reader := bufio.NewReader(in)
	archived := 0

	updated := make([]models.OrderRecord, len(records))
	copy(updated, records)

	for i := range updated {
		if updated[i].Terminal() {
			continue
		}

		fmt.Fprintf(out, "Order %s from %s (status %q). Archive? [y/N] ",
			updated[i].OrderNumber, updated[i].Company, updated[i].Status)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "y" || answer == "yes" {
			updated[i].Status = models.StatusArchive
			archived++
			fmt.Fprintf(out, "Archived order %s.\n", updated[i].OrderNumber)
		}
	}

	return updated, archived
}
