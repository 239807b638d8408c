package http

import (
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

const displayDate = "Jan 2, 2006"

type recordView struct {
	ID            string
	Description   string
	Date          string
	DateISO       string
	Amount        string
	Kind          core.Kind
	Category      core.Category
	PaymentMethod core.PaymentMethod
}

func newRecordView(r core.Record) recordView {
	return recordView{
		ID:            r.ID,
		Description:   r.Description,
		Date:          r.Date.Local().Format(displayDate),
		DateISO:       r.Date.UTC().Format(time.RFC3339),
		Amount:        core.FormatAmount(r.Amount),
		Kind:          r.Kind(),
		Category:      r.Category,
		PaymentMethod: r.PaymentMethod,
	}
}

type listView struct {
	Records  []recordView
	Total    string
	Income   string
	Expenses string
	Negative bool
	Empty    bool
}

func newListView(s *store.Store) listView {
	records := s.Records()
	total := s.Total()
	sum := core.Summarize(records)
	v := listView{
		Records:  make([]recordView, 0, len(records)),
		Total:    core.FormatAmount(total),
		Income:   core.FormatAmount(sum.Income),
		Expenses: core.FormatAmount(sum.Expenses),
		Negative: total.IsNegative(),
		Empty:    len(records) == 0,
	}
	for _, r := range records {
		v.Records = append(v.Records, newRecordView(r))
	}
	return v
}

// formView holds the values of the record fields shared by the create form
// and the edit modal.
type formView struct {
	Description    string
	Amount         string
	Income         bool
	Category       string
	PaymentMethod  string
	Categories     []core.Category
	PaymentMethods []core.PaymentMethod
}

func emptyForm() formView {
	return formView{Categories: core.Categories(), PaymentMethods: core.PaymentMethods()}
}

// formFromRecord pre-fills the edit form: magnitude and toggle come from the sign.
func formFromRecord(r core.Record) formView {
	f := emptyForm()
	f.Description = r.Description
	f.Amount = core.FormatAmount(r.Amount.Abs())
	f.Income = r.Kind() == core.Income
	f.Category = string(r.Category)
	f.PaymentMethod = string(r.PaymentMethod)
	return f
}

// formFromInput re-renders what the user submitted.
func formFromInput(in recordInput) formView {
	f := emptyForm()
	f.Description = in.Description
	f.Amount = in.Magnitude
	f.Income = in.Kind == core.Income
	f.Category = string(in.Category)
	f.PaymentMethod = string(in.PaymentMethod)
	return f
}

type modalView struct {
	Open   bool
	ID     string
	Error  string
	Fields formView
}

func newModalView(sel *store.Selection) modalView {
	r, open := sel.Current()
	if !open {
		return modalView{}
	}
	return modalView{Open: true, ID: r.ID, Fields: formFromRecord(r)}
}

type dashboardView struct {
	FirstName string
	LoadError string
	Form      formView
	List      listView
	Modal     modalView
	Activity  bool
}

const activityLimit = 10

var activityLabels = map[string]string{
	string(amqp.EventRecordCreated): "Added",
	string(amqp.EventRecordUpdated): "Edited",
	string(amqp.EventRecordDeleted): "Deleted",
}

type eventView struct {
	Label    string
	RecordID string
	Amount   string
	When     string
	WhenISO  string
}

type activityView struct {
	Events []eventView
	Error  string
}

func newActivityView(events []storage.Event) activityView {
	v := activityView{Events: make([]eventView, 0, len(events))}
	for _, e := range events {
		label, ok := activityLabels[e.Type]
		if !ok {
			label = e.Type
		}
		amount := e.Amount
		if d, err := core.ParseSigned(e.Amount); err == nil {
			amount = core.FormatAmount(d)
		}
		v.Events = append(v.Events, eventView{
			Label:    label,
			RecordID: e.RecordID,
			Amount:   amount,
			When:     e.OccurredAt.Local().Format(displayDate + " 15:04"),
			WhenISO:  e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return v
}

type indexView struct {
	SignInURL string
	DevSignIn bool
}
