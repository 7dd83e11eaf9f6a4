package training

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

// MetricRecord is the decoded form of one archived metric series: the exact
// lifetime history of a tracker, kept for final reporting after the smoothed
// display values are gone.
type MetricRecord struct {
	Name    string
	Count   int
	Total   float64
	History []float64
}

// GlobalAverage returns Total/Count for the archived series.
func (mr MetricRecord) GlobalAverage() (float64, error) {
	if mr.Count == 0 {
		return 0, ErrNoObservations
	}
	return mr.Total / float64(mr.Count), nil
}

// WriteArchive writes one length-delimited protobuf record per tracked
// metric, in sorted name order. Each record carries the metric name, the
// lifetime count and total, and the full observation history.
func (mr *MetricRegistry) WriteArchive(w io.Writer) error {
	for _, name := range mr.Names() {
		sv, _ := mr.Get(name)

		history := sv.History()
		values := make([]interface{}, len(history))
		for i, v := range history {
			values[i] = v
		}

		record, err := structpb.NewStruct(map[string]interface{}{
			"name":    name,
			"count":   sv.Count(),
			"total":   sv.Total(),
			"history": values,
		})
		if err != nil {
			return fmt.Errorf("failed to encode metric %q: %w", name, err)
		}

		if _, err := protodelim.MarshalTo(w, record); err != nil {
			return fmt.Errorf("failed to write metric %q: %w", name, err)
		}
	}
	return nil
}

// ReadArchive decodes every record written by WriteArchive.
func ReadArchive(r io.Reader) ([]MetricRecord, error) {
	br := bufio.NewReader(r)

	var records []MetricRecord
	for {
		record := &structpb.Struct{}
		err := protodelim.UnmarshalFrom(br, record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive record %d: %w", len(records), err)
		}

		fields := record.GetFields()
		decoded := MetricRecord{
			Name:  fields["name"].GetStringValue(),
			Count: int(fields["count"].GetNumberValue()),
			Total: fields["total"].GetNumberValue(),
		}
		for _, v := range fields["history"].GetListValue().GetValues() {
			decoded.History = append(decoded.History, v.GetNumberValue())
		}
		records = append(records, decoded)
	}
	return records, nil
}
