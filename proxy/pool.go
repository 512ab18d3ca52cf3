package proxy

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	apperrors "github.com/nijaru/yt-transcript/errors"
	"github.com/sirupsen/logrus"
)

// LoadPool reads the proxy list at path. It is called on every selection so
// edits to the file take effect without a restart. Malformed lines are
// skipped with a warning; one bad record never disables the whole pool.
func LoadPool(path string) ([]Record, error) {
	const op = "proxy.LoadPool"

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Configuration(op, err, fmt.Sprintf("Proxy list not found: %s", path))
		}
		return nil, apperrors.Configuration(op, err, fmt.Sprintf("Failed to open proxy list: %s", path))
	}
	defer file.Close()

	var (
		pool    []Record
		skipped int
		lineNo  int
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		record, err := ParseRecord(line)
		if err != nil {
			skipped++
			logrus.WithFields(logrus.Fields{
				"path":  path,
				"line":  lineNo,
				"error": err,
			}).Warn("Skipping malformed proxy record")
			continue
		}
		pool = append(pool, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Configuration(op, err, fmt.Sprintf("Failed to read proxy list: %s", path))
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"parsed":  len(pool),
		"skipped": skipped,
	}).Debug("Loaded proxy pool")

	return pool, nil
}

// PickRandom returns a uniformly random record. intN defaults to math/rand/v2.IntN.
func PickRandom(pool []Record, intN func(int) int) (Record, error) {
	if len(pool) == 0 {
		return Record{}, apperrors.EmptyPool("proxy.PickRandom", "Proxy pool is empty")
	}
	if intN == nil {
		intN = rand.IntN
	}
	return pool[intN(len(pool))], nil
}
