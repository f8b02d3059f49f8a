package report

import (
	"fmt"
	"time"

	airtable "github.com/crufter/airtable-go"
)

// Run is what gets reported about one sync cycle. Every run lands as a
// record, DONE and FAILED alike, so a dashboard can filter on state without
// reading logs.
type Run struct {
	ID           string
	State        string
	Accounts     int
	Transactions int
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
}

type runRecord struct {
	AirtableID string `json:"id,omitempty"`
	Fields     struct {
		Run          string
		State        string
		Accounts     int
		Transactions int
		Error        string
		StartedAt    string
		Duration     string
	}
}

type AirtableReporter struct {
	APIKey string
	BaseID string
	Table  string
}

func (r AirtableReporter) Report(run Run) error {
	client, err := airtable.New(r.APIKey, r.BaseID)
	if err != nil {
		return fmt.Errorf("Error creating airtable client: %s", err.Error())
	}

	record := recordForRun(run)

	err = client.CreateRecord(r.Table, &record)
	if err != nil {
		return fmt.Errorf("Error creating airtable run record: %s", err.Error())
	}

	return nil
}

func recordForRun(run Run) runRecord {
	record := runRecord{}
	record.Fields.Run = run.ID
	record.Fields.State = run.State
	record.Fields.Accounts = run.Accounts
	record.Fields.Transactions = run.Transactions
	record.Fields.StartedAt = run.StartedAt.Format(time.RFC3339)
	record.Fields.Duration = run.Duration.Round(time.Millisecond).String()

	if run.Err != nil {
		record.Fields.Error = run.Err.Error()
	}

	return record
}
