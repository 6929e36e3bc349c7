package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"expense_tracker/internal/calendar"
	"expense_tracker/internal/config"
	"expense_tracker/internal/db"
	"expense_tracker/internal/notify"
	"expense_tracker/internal/repository"
	"expense_tracker/internal/stats"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// APISuite drives the real router over HTTP against an in-memory store and Redis
type APISuite struct {
	suite.Suite
	db     *gorm.DB
	hub    *notify.Hub
	srv    *httptest.Server
	txRepo *repository.TransactionRepository
}

func (s *APISuite) SetupTest() {
	gdb, err := db.Open(config.DriverSQLite, "file::memory:")
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(gdb))
	s.db = gdb

	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		CacheTTL:    time.Minute,
		CORSOrigins: []string{"*"},
	}
	admins := repository.NewAdminRepository(gdb)
	s.txRepo = repository.NewTransactionRepository(gdb, calendar.Approximate{})
	s.hub = notify.NewHub(AdminAuthorizer(cfg.JWTSecret, admins), cfg.CORSOrigins)
	router := NewRouter(Deps{
		Config:       cfg,
		Users:        repository.NewUserRepository(gdb),
		Admins:       admins,
		Transactions: s.txRepo,
		Stats:        stats.NewAggregator(gdb),
		Hub:          s.hub,
		Redis:        rdb,
	})
	s.srv = httptest.NewServer(router)
}

func (s *APISuite) TearDownTest() {
	s.srv.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// call sends a JSON request and decodes the JSON response into a map
func (s *APISuite) call(method, path, token string, body any) (int, map[string]any) {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *APISuite) registerUser(name string) string {
	code, body := s.call(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret1",
		"firstName": strings.ToUpper(name[:1]) + name[1:], "lastName": "Tester",
	})
	s.Require().Equal(http.StatusCreated, code, body)
	return body["token"].(string)
}

func (s *APISuite) registerAdmin(name string) string {
	code, body := s.call(http.MethodPost, "/api/admin/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret1",
		"firstName": "Admin", "lastName": "User",
	})
	s.Require().Equal(http.StatusCreated, code, body)
	return body["token"].(string)
}

func (s *APISuite) createTx(token, typ string, amount float64, date string) map[string]any {
	code, body := s.call(http.MethodPost, "/api/transactions", token, gin.H{
		"type": typ, "amount": amount, "category": "Other", "description": "test", "date": date,
	})
	s.Require().Equal(http.StatusCreated, code, body)
	return body["transaction"].(map[string]any)
}

func idPath(tx map[string]any) string {
	return "/api/transactions/" + strconv.FormatFloat(tx["id"].(float64), 'f', 0, 64)
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func (s *APISuite) TestHealth() {
	code, body := s.call(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, code)
	s.Equal("OK", body["status"])
}

func (s *APISuite) TestRegisterLoginAndProfile() {
	token := s.registerUser("ram")

	code, body := s.call(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ram", "email": "other@example.com", "password": "secret1", "firstName": "R", "lastName": "T",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal(false, body["success"])

	code, body = s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ram@example.com", "password": "wrong!"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Invalid credentials", body["message"])

	code, body = s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "RAM@example.com", "password": "secret1"})
	s.Equal(http.StatusOK, code)
	s.NotEmpty(body["token"])

	code, body = s.call(http.MethodGet, "/api/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, code)
	user := body["user"].(map[string]any)
	s.Equal("ram", user["username"])
	s.NotEmpty(user["dateOfJoin"])
	s.NotContains(user, "password")

	code, body = s.call(http.MethodPut, "/api/auth/me", token, gin.H{"firstName": "Ramesh"})
	s.Equal(http.StatusOK, code)
	s.Equal("Ramesh", body["user"].(map[string]any)["firstName"])

	s.registerUser("sita")
	code, _ = s.call(http.MethodPut, "/api/auth/me", token, gin.H{"email": "sita@example.com"})
	s.Equal(http.StatusBadRequest, code, "email taken by another user")
}

func (s *APISuite) TestRegisterValidation() {
	code, body := s.call(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ab", "email": "not-an-email", "password": "123", "firstName": "A",
	})
	s.Equal(http.StatusBadRequest, code)
	errs := body["errors"].(map[string]any)
	s.Contains(errs, "username")
	s.Contains(errs, "email")
	s.Contains(errs, "password")
	s.Contains(errs, "lastName")
}

func (s *APISuite) TestRegisterRejectsBlankNames() {
	for _, path := range []string{"/api/auth/register", "/api/admin/register"} {
		s.Run(path, func() {
			code, body := s.call(http.MethodPost, path, "", gin.H{
				"username": "blank", "email": "blank@example.com", "password": "secret1",
				"firstName": "   ", "lastName": "\t",
			})
			s.Equal(http.StatusBadRequest, code)
			s.Require().Contains(body, "errors")
			errs := body["errors"].(map[string]any)
			s.Contains(errs, "firstName")
			s.Contains(errs, "lastName")
		})
	}
	code, body := s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "blank@example.com", "password": "secret1"})
	s.Equal(http.StatusBadRequest, code, "no account was created")
	s.Equal("Invalid credentials", body["message"])
}

func (s *APISuite) TestTransactionsRequireToken() {
	code, body := s.call(http.MethodPost, "/api/transactions", "", gin.H{"type": "income", "amount": 5, "category": "Salary", "date": today()})
	s.Equal(http.StatusUnauthorized, code)
	s.Equal(false, body["success"])
	code, _ = s.call(http.MethodGet, "/api/transactions", "garbage", nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *APISuite) TestCreateValidation() {
	token := s.registerUser("ram")
	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"zero amount", gin.H{"type": "income", "amount": 0, "category": "Salary", "date": today()}, "amount"},
		{"negative amount", gin.H{"type": "expense", "amount": -4, "category": "Food", "date": today()}, "amount"},
		{"sub-cent amount", gin.H{"type": "expense", "amount": 0.004, "category": "Food", "date": today()}, "amount"},
		{"amount beyond column range", gin.H{"type": "income", "amount": 1e12, "category": "Salary", "date": today()}, "amount"},
		{"unknown type", gin.H{"type": "transfer", "amount": 4, "category": "Food", "date": today()}, "type"},
		{"missing category", gin.H{"type": "expense", "amount": 4, "date": today()}, "category"},
		{"bad date", gin.H{"type": "expense", "amount": 4, "category": "Food", "date": "yesterday"}, "date"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			code, body := s.call(http.MethodPost, "/api/transactions", token, tt.body)
			s.Equal(http.StatusBadRequest, code)
			s.Require().Contains(body, "errors")
			s.Contains(body["errors"].(map[string]any), tt.field)
		})
	}
	_, body := s.call(http.MethodGet, "/api/transactions", token, nil)
	s.Empty(body["transactions"])
}

func (s *APISuite) TestCreateListAndStats() {
	token := s.registerUser("ram")
	income := s.createTx(token, "income", 5000, today())
	s.Equal(5000.0, income["amount"])
	s.NotEmpty(income["bsDate"])
	s.createTx(token, "expense", 2000, today())

	code, body := s.call(http.MethodGet, "/api/transactions/stats", token, nil)
	s.Require().Equal(http.StatusOK, code)
	st := body["stats"].(map[string]any)
	s.Equal(3000.0, st["totalBalance"])
	s.Equal(5000.0, st["totalIncome"])
	s.Equal(2000.0, st["totalExpenses"])
	s.Equal(5000.0, st["thisMonthIncome"])
	s.Equal(2000.0, st["thisMonthExpenses"])
	s.Equal(2.0, st["totalTransactions"])

	_, body = s.call(http.MethodGet, "/api/transactions?type=expense", token, nil)
	s.Len(body["transactions"], 1)
	code, _ = s.call(http.MethodGet, "/api/transactions?type=refund", token, nil)
	s.Equal(http.StatusBadRequest, code)

	code, body = s.call(http.MethodGet, idPath(income), token, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("income", body["transaction"].(map[string]any)["type"])

	code, body = s.call(http.MethodGet, "/api/transactions/stats/monthly?year="+today()[:4], token, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Len(body["months"], 12)

	code, body = s.call(http.MethodGet, "/api/transactions/categories", token, nil)
	s.Equal(http.StatusOK, code)
	s.Contains(body["categories"].(map[string]any)["income"], "Salary")
}

func (s *APISuite) TestEmptyUserStats() {
	token := s.registerUser("ram")
	code, body := s.call(http.MethodGet, "/api/transactions/stats", token, nil)
	s.Require().Equal(http.StatusOK, code)
	st := body["stats"].(map[string]any)
	s.Equal(0.0, st["totalBalance"])
	s.Equal([]any{}, st["recentTransactions"])
}

func (s *APISuite) TestUpdateRecomputesBSDateAndIgnoresClientValue() {
	token := s.registerUser("ram")
	tx := s.createTx(token, "expense", 10, "2026-10-05")
	s.Equal("२०८३ साल असोज १९ गते", tx["bsDate"])

	code, body := s.call(http.MethodPut, idPath(tx), token, gin.H{"date": "2026-04-14", "bsDate": "forged", "amount": 12.5})
	s.Require().Equal(http.StatusOK, code, body)
	updated := body["transaction"].(map[string]any)
	s.NotEqual("forged", updated["bsDate"])
	s.Equal(calendar.Approximate{}.Format(time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC)), updated["bsDate"])
	s.Equal(12.5, updated["amount"])

	code, body = s.call(http.MethodPut, idPath(tx), token, gin.H{"amount": 0})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"].(map[string]any), "amount")

	code, body = s.call(http.MethodPut, idPath(tx), token, gin.H{"amount": 10.005})
	s.Equal(http.StatusBadRequest, code, "sub-cent precision would be rounded away by the column")
	s.Contains(body["errors"].(map[string]any), "amount")

	code, _ = s.call(http.MethodPut, idPath(tx), token, gin.H{})
	s.Equal(http.StatusBadRequest, code, "empty patch")
}

func (s *APISuite) TestNonOwnerCannotTouchTransaction() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	tx := s.createTx(bob, "income", 100, today())

	code, body := s.call(http.MethodPut, idPath(tx), alice, gin.H{"amount": 1})
	s.Equal(http.StatusNotFound, code)
	s.Equal("Transaction not found", body["message"])

	code, body = s.call(http.MethodPut, idPath(tx), alice, gin.H{})
	s.Equal(http.StatusNotFound, code, "an empty body does not reveal that the id exists")
	s.Equal("Transaction not found", body["message"])

	code, _ = s.call(http.MethodPut, idPath(tx), alice, gin.H{"amount": -1})
	s.Equal(http.StatusNotFound, code)

	code, _ = s.call(http.MethodDelete, idPath(tx), alice, nil)
	s.Equal(http.StatusNotFound, code)
	code, _ = s.call(http.MethodGet, idPath(tx), alice, nil)
	s.Equal(http.StatusNotFound, code)

	code, body = s.call(http.MethodGet, idPath(tx), bob, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(100.0, body["transaction"].(map[string]any)["amount"])

	_, body = s.call(http.MethodGet, "/api/transactions", alice, nil)
	s.Empty(body["transactions"])
}

func (s *APISuite) TestDeleteTwiceIsNotFound() {
	token := s.registerUser("ram")
	tx := s.createTx(token, "expense", 5, today())

	code, body := s.call(http.MethodDelete, idPath(tx), token, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("Transaction deleted", body["message"])
	for i := 0; i < 2; i++ {
		code, _ = s.call(http.MethodDelete, idPath(tx), token, nil)
		s.Equal(http.StatusNotFound, code)
	}
	code, _ = s.call(http.MethodDelete, "/api/transactions/abc", token, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *APISuite) TestAdminRoutesRejectUserTokens() {
	user := s.registerUser("ram")
	for _, path := range []string{"/api/admin/dashboard", "/api/admin/users", "/api/admin/transactions", "/api/admin/socket/stats"} {
		code, _ := s.call(http.MethodGet, path, user, nil)
		s.Equal(http.StatusUnauthorized, code, path)
		code, _ = s.call(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, code, path)
	}
}

func (s *APISuite) TestAdminLoginRespectsActiveFlag() {
	s.registerAdmin("root")
	code, body := s.call(http.MethodPost, "/api/admin/login", "", gin.H{"email": "root@example.com", "password": "secret1"})
	s.Require().Equal(http.StatusOK, code)
	token := body["token"].(string)
	s.Equal("admin", body["admin"].(map[string]any)["role"])

	s.Require().NoError(repository.NewAdminRepository(s.db).SetActive(context.Background(), "root@example.com", false))
	code, body = s.call(http.MethodPost, "/api/admin/login", "", gin.H{"email": "root@example.com", "password": "secret1"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Invalid credentials", body["message"])
	code, _ = s.call(http.MethodGet, "/api/admin/dashboard", token, nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *APISuite) TestAdminDashboardAndListings() {
	admin := s.registerAdmin("root")
	ram := s.registerUser("ram")
	s.registerUser("sita")
	s.createTx(ram, "income", 300, today())
	s.createTx(ram, "expense", 100, today())

	code, body := s.call(http.MethodGet, "/api/admin/dashboard", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	dash := body["dashboard"].(map[string]any)
	st := dash["stats"].(map[string]any)
	s.Equal(2.0, st["totalUsers"])
	s.Equal(2.0, st["totalTransactions"])
	s.Equal(300.0, st["totalIncome"])
	s.Equal(100.0, st["totalExpenses"])
	recent := dash["recentTransactions"].([]any)
	s.Require().Len(recent, 2)
	s.Equal("ram@example.com", recent[0].(map[string]any)["user"].(map[string]any)["email"])

	code, body = s.call(http.MethodGet, "/api/admin/users?limit=1", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(false, body["cached"])
	s.Len(body["users"], 1)
	page := body["pagination"].(map[string]any)
	s.Equal(2.0, page["totalCount"])
	s.Equal(2.0, page["totalPages"])
	s.Equal(true, page["hasNext"])
	s.Equal(false, page["hasPrev"])

	_, body = s.call(http.MethodGet, "/api/admin/users?limit=1", admin, nil)
	s.Equal(true, body["cached"])

	s.registerUser("hari")
	_, body = s.call(http.MethodGet, "/api/admin/users?limit=1", admin, nil)
	s.Equal(false, body["cached"], "registration invalidates the users listing")
	s.Equal(3.0, body["pagination"].(map[string]any)["totalCount"])

	_, body = s.call(http.MethodGet, "/api/admin/transactions", admin, nil)
	s.Equal(false, body["cached"])
	s.Len(body["transactions"], 2)
	_, body = s.call(http.MethodGet, "/api/admin/transactions", admin, nil)
	s.Equal(true, body["cached"])
	s.createTx(ram, "expense", 1, today())
	_, body = s.call(http.MethodGet, "/api/admin/transactions", admin, nil)
	s.Equal(false, body["cached"], "a new transaction invalidates the listing")
	s.Len(body["transactions"], 3)
}

func (s *APISuite) dialAdmin(token string) *notify.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := notify.Dial(ctx, "ws"+strings.TrimPrefix(s.srv.URL, "http")+"/ws", nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	if token != "" {
		s.Require().NoError(c.Join(ctx, token))
	}
	return c
}

func (s *APISuite) TestAdminReceivesTransactionEvents() {
	admin := s.registerAdmin("root")
	user := s.registerUser("ram")

	frames := make(chan notify.Frame, 8)
	c := s.dialAdmin("")
	for _, ev := range []string{notify.EventTransactionAdded, notify.EventTransactionUpdated, notify.EventTransactionDeleted} {
		ev := ev
		c.Subscribe(ev, func(d json.RawMessage) { frames <- notify.Frame{Event: ev, Data: d} })
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(c.Join(ctx, admin))

	code, body := s.call(http.MethodGet, "/api/admin/socket/stats", admin, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(1.0, body["sockets"].(map[string]any)["joined"])

	tx := s.createTx(user, "income", 42, today())
	s.call(http.MethodDelete, idPath(tx), user, nil)

	next := func() notify.Frame {
		select {
		case f := <-frames:
			return f
		case <-time.After(5 * time.Second):
			s.FailNow("no frame received")
			return notify.Frame{}
		}
	}

	added := next()
	s.Equal(notify.EventTransactionAdded, added.Event)
	var payload struct {
		Transaction struct {
			ID     uint    `json:"id"`
			Amount float64 `json:"amount"`
			User   struct {
				FirstName string `json:"firstName"`
				Email     string `json:"email"`
			} `json:"user"`
		} `json:"transaction"`
	}
	s.Require().NoError(json.Unmarshal(added.Data, &payload))
	s.Equal(42.0, payload.Transaction.Amount)
	s.Equal("Ram", payload.Transaction.User.FirstName)
	s.Equal("ram@example.com", payload.Transaction.User.Email)

	// Exactly one added event: the next frame is already the delete
	deleted := next()
	s.Equal(notify.EventTransactionDeleted, deleted.Event)
	var del struct {
		TransactionID uint `json:"transactionId"`
		User          struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(deleted.Data, &del))
	s.Equal(payload.Transaction.ID, del.TransactionID)
	s.Equal("ram@example.com", del.User.Email)
}

func (s *APISuite) TestSocketJoinRejectsUserToken() {
	user := s.registerUser("ram")
	c := s.dialAdmin("")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.ErrorIs(c.Join(ctx, user), notify.ErrJoinRejected)
	s.Equal(0, s.hub.Stats().Joined)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
