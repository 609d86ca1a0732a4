package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/config"
	"github.com/monargent/monargent/internal/docstore"
	"github.com/monargent/monargent/internal/utils"
	"github.com/monargent/monargent/pkg/ledger"
	"github.com/monargent/monargent/pkg/money"
	"github.com/monargent/monargent/pkg/recurrence"
	"github.com/shopspring/decimal"
)

var placeholder = regexp.MustCompile(`<([^<>]+)>`)

// world is the state of a single scenario: a fresh in-memory application
// and the last response it produced.
type world struct {
	clock    *utils.MockClock
	deps     *Dependencies
	router   *mux.Router
	names    map[string]string
	response *httptest.ResponseRecorder
}

func newWorld() (*world, error) {
	clock := &utils.MockClock{}
	deps, err := BuildDependencies(docstore.NewMemoryStore(), config.Default(), clock)
	if err != nil {
		return nil, err
	}
	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)
	return &world{clock: clock, deps: deps, router: r, names: map[string]string{}}, nil
}

func (w *world) resolve(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if id, ok := w.names[m[1:len(m)-1]]; ok {
			return id
		}
		return m
	})
}

func (w *world) send(method, path string, body []byte) {
	req := httptest.NewRequest(method, w.resolve(path), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w.response = httptest.NewRecorder()
	w.router.ServeHTTP(w.response, req)
}

func (w *world) todayIs(value string) error {
	day, err := utils.ParseDate(value)
	if err != nil {
		return err
	}
	w.clock.SetNow(time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.Local))
	return nil
}

func (w *world) aBudgetNamed(name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})
	w.send(http.MethodPost, "/api/budgets", body)
	if w.response.Code != http.StatusCreated {
		return fmt.Errorf("failed to create budget %s: %d %s", name, w.response.Code, w.response.Body.String())
	}
	return w.rememberField("id", name)
}

func (w *world) budgetHasTransaction(name, kind, amount, date string) error {
	day, err := utils.ParseDate(date)
	if err != nil {
		return err
	}
	_, err = w.deps.LedgerService.AddTransaction(context.Background(), w.names[name], ledger.Draft{
		Type:        money.TransactionType(kind),
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  "other",
		Description: kind,
		Date:        day,
	})
	return err
}

func (w *world) budgetHasRecurrence(name, frequency, amount, start string) error {
	day, err := utils.ParseDate(start)
	if err != nil {
		return err
	}
	_, err = w.deps.RecurrenceService.Create(context.Background(), w.names[name], recurrence.Definition{
		Type:        money.Expense,
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  "housing",
		Description: "Loyer",
		Frequency:   recurrence.Frequency(frequency),
		StartDate:   day,
	})
	return err
}

func (w *world) iSendARequestTo(method, path string) error {
	w.send(method, path, nil)
	return nil
}

func (w *world) iSendARequestToWithBody(method, path string, body *godog.DocString) error {
	w.send(method, path, []byte(w.resolve(body.Content)))
	return nil
}

func (w *world) theResponseStatusShouldBe(status int) error {
	if w.response.Code != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, w.response.Code, w.response.Body.String())
	}
	return nil
}

// field walks a dotted path through the decoded response; numeric segments
// index arrays.
func (w *world) field(path string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(w.response.Body.Bytes()))
	decoder.UseNumber()
	var current any
	if err := decoder.Decode(&current); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, w.response.Body.String())
			}
			current = value
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %s", segment, w.response.Body.String())
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %s", segment, path)
		}
	}
	return current, nil
}

func (w *world) theResponseFieldShouldBe(path, expected string) error {
	value, err := w.field(path)
	if err != nil {
		return err
	}
	expected = w.resolve(expected)
	if n, ok := value.(json.Number); ok {
		actual, err := decimal.NewFromString(n.String())
		if err != nil {
			return err
		}
		want, err := decimal.NewFromString(expected)
		if err != nil || !actual.Equal(want) {
			return fmt.Errorf("expected %s to be %s, got %s", path, expected, n)
		}
		return nil
	}
	if actual := fmt.Sprint(value); actual != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, actual)
	}
	return nil
}

func (w *world) rememberField(path, name string) error {
	value, err := w.field(path)
	if err != nil {
		return err
	}
	w.names[name] = fmt.Sprint(value)
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &world{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		fresh, err := newWorld()
		if err != nil {
			return ctx, err
		}
		*w = *fresh
		return ctx, nil
	})

	sc.Step(`^today is "([^"]*)"$`, w.todayIs)
	sc.Step(`^a budget named "([^"]*)"$`, w.aBudgetNamed)
	sc.Step(`^budget "([^"]*)" has an? "([^"]*)" of "([^"]*)" on "([^"]*)"$`, w.budgetHasTransaction)
	sc.Step(`^budget "([^"]*)" has a "([^"]*)" recurrence of "([^"]*)" starting "([^"]*)"$`, w.budgetHasRecurrence)
	sc.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, w.iSendARequestTo)
	sc.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, w.iSendARequestToWithBody)
	sc.Step(`^the response status should be (\d+)$`, w.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, w.theResponseFieldShouldBe)
	sc.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, w.rememberField)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "monargent",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
