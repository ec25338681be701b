package status

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type HealthStatus string

const (
	Reload = "reload"
	Config = "config"
	Push   = "push"

	Healthy      HealthStatus = "healthy"
	Degraded     HealthStatus = "degraded"
	Initializing HealthStatus = "initializing"
	Down         HealthStatus = "down"
)

const maxRecordCount = 5
const maxLastErrorsMeaningDegraded = 2

type Reporter interface {
	ReportOk(component string, message string)
	ReportError(component string, message string)
	GetStatus() Status

	HttpHandler() http.HandlerFunc
}

type Status struct {
	Status     HealthStatus                `json:"status"`
	Components map[string]*ComponentStatus `json:"components"`
}

type ComponentStatus struct {
	Status  HealthStatus `json:"status"`
	Records []string     `json:"records"`
}

type record struct {
	time    time.Time
	isError bool
	message string
}

type reporter struct {
	records map[string][]record
	mu      sync.RWMutex
	status  Status
}

func NewNullReporter() Reporter {
	return NewReporter()
}

// NewReporter tracks the health of the given components. Reports for
// components it was not created with are ignored.
func NewReporter(components ...string) Reporter {
	r := &reporter{
		records: make(map[string][]record),
		status: Status{
			Status:     Initializing,
			Components: make(map[string]*ComponentStatus, len(components)),
		},
	}
	for _, c := range components {
		r.status.Components[c] = &ComponentStatus{Status: Initializing}
	}
	return r
}

func (r *reporter) ReportOk(component string, message string) {
	r.appendRecord(component, "[ok] "+message, false)
}

func (r *reporter) ReportError(component string, message string) {
	r.appendRecord(component, "[error] "+message, true)
}

func (r *reporter) HttpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status, err := json.Marshal(r.GetStatus())
		if err != nil {
			http.Error(w, "Error producing status", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(status)
	}
}

func (r *reporter) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := Status{Status: r.status.Status, Components: make(map[string]*ComponentStatus, len(r.status.Components))}
	for k, v := range r.status.Components {
		c := *v
		res.Components[k] = &c
	}
	return res
}

func (r *reporter) checkStatus(records []record) ([]string, HealthStatus) {
	length := len(records)
	targetRecords := make([]string, length)
	var errorCount = 0
	for i, msg := range records {
		targetRecords[i] = msg.time.UTC().Format(time.RFC1123) + ": " + msg.message
		if i >= length-maxLastErrorsMeaningDegraded {
			if msg.isError {
				errorCount++
			} else {
				errorCount--
			}
		}
	}
	if errorCount > 0 && errorCount >= min(maxLastErrorsMeaningDegraded, length) {
		return targetRecords, Degraded
	}
	return targetRecords, Healthy
}

func (r *reporter) appendRecord(component string, message string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comp, ok := r.status.Components[component]
	if !ok {
		return
	}
	recs, ok := r.records[component]
	if !ok {
		recs = make([]record, 0, maxRecordCount)
	}
	recs = append(recs, record{time: time.Now(), isError: isError, message: message})
	if len(recs) > maxRecordCount {
		recs = recs[1:]
	}
	r.records[component] = recs
	rec, stat := r.checkStatus(recs)
	comp.Records = rec
	if stat == Degraded && (comp.Status == Initializing || comp.Status == Down) {
		stat = Down
	}
	comp.Status = stat

	r.status.Status = r.overall()
}

// overall ignores components that haven't reported anything yet.
func (r *reporter) overall() HealthStatus {
	reported, down, unhealthy := 0, 0, 0
	for _, c := range r.status.Components {
		switch c.Status {
		case Initializing:
			continue
		case Down:
			down++
		case Degraded:
			unhealthy++
		}
		reported++
	}
	switch {
	case reported == 0:
		return Initializing
	case down == reported:
		return Down
	case down > 0 || unhealthy > 0:
		return Degraded
	}
	return Healthy
}
