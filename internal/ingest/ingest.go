// Package ingest reads period documents produced by the scraping layer and
// writes them to the store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/gh674055/sports-compare-bots/internal/model"
)

// Document is one subject's periods at a single granularity.
type Document struct {
	Subject     string
	Granularity model.Granularity
	Periods     []model.Period
}

// Writer persists periods. *store.Store implements it.
type Writer interface {
	InsertPeriods(ctx context.Context, batch, subject string, granularity model.Granularity, periods []model.Period) (int, error)
	DeleteBatch(ctx context.Context, batch string) (int64, error)
}

// ReadFile parses the documents in path.
func ReadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	docs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Parse decodes a single document or an array of documents.
func Parse(data []byte) ([]Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil, fmt.Errorf("expected a document or an array of documents")
	}
	docs := make([]Document, 0, len(items))
	for i, item := range items {
		doc, err := parseDocument(item)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseDocument(r gjson.Result) (Document, error) {
	subject := strings.TrimSpace(r.Get("subject").String())
	if subject == "" {
		return Document{}, fmt.Errorf("missing subject")
	}
	gran, err := model.ParseGranularity(r.Get("granularity").String())
	if err != nil {
		return Document{}, err
	}
	doc := Document{Subject: subject, Granularity: gran}
	for i, p := range r.Get("periods").Array() {
		period, err := parsePeriod(p)
		if err != nil {
			return Document{}, fmt.Errorf("%s period %d: %w", subject, i, err)
		}
		doc.Periods = append(doc.Periods, period)
	}
	return doc, nil
}

func parsePeriod(r gjson.Result) (model.Period, error) {
	year := r.Get("year")
	if year.Type != gjson.Number || year.Int() <= 0 {
		return model.Period{}, fmt.Errorf("missing or invalid year")
	}
	p := model.Period{
		Year:     int(year.Int()),
		Playoffs: r.Get("playoffs").Bool(),
		Team:     r.Get("team").String(),
		Stats:    map[string]map[string]float64{},
	}
	switch res := model.Result(strings.ToUpper(r.Get("result").String())); res {
	case "", model.ResultWin, model.ResultLoss, model.ResultTie:
		p.Result = res
	default:
		return model.Period{}, fmt.Errorf("unknown result %q", res)
	}

	var perr error
	r.Get("stats").ForEach(func(cat, stats gjson.Result) bool {
		if !stats.IsObject() {
			perr = fmt.Errorf("stats for %s must be an object", cat.String())
			return false
		}
		values := map[string]float64{}
		stats.ForEach(func(name, v gjson.Result) bool {
			if v.Type != gjson.Number {
				perr = fmt.Errorf("%s~%s is not a number", cat.String(), name.String())
				return false
			}
			values[name.String()] = v.Float()
			return true
		})
		if perr != nil {
			return false
		}
		p.Stats[cat.String()] = values
		return true
	})
	if perr != nil {
		return model.Period{}, perr
	}
	return p, nil
}

// Import writes docs under a fresh batch ID and returns it with the number of
// periods written. When a document fails, the documents already written are
// deleted again and the count is 0. If that cleanup fails too, the count is
// what is left behind and the error names the batch so it can be dropped.
func Import(ctx context.Context, w Writer, docs []Document) (string, int, error) {
	batch := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"component": "ingest", "batch": batch})
	total := 0
	for _, doc := range docs {
		n, err := w.InsertPeriods(ctx, batch, doc.Subject, doc.Granularity, doc.Periods)
		if err != nil {
			err = fmt.Errorf("failed to import %s: %w", doc.Subject, err)
			if total == 0 {
				return batch, 0, err
			}
			removed, derr := w.DeleteBatch(context.WithoutCancel(ctx), batch)
			if derr != nil {
				log.WithError(derr).WithField("periods", total).Warn("Partial import left behind")
				return batch, total, fmt.Errorf("%w (partial import left in batch %s: %v)", err, batch, derr)
			}
			log.WithField("periods", removed).Warn("Rolled back partial import")
			return batch, 0, err
		}
		total += n
		log.WithFields(logrus.Fields{
			"subject":     doc.Subject,
			"granularity": doc.Granularity.String(),
			"periods":     n,
		}).Debug("Imported document")
	}
	log.WithFields(logrus.Fields{"documents": len(docs), "periods": total}).Info("Import completed")
	return batch, total, nil
}
