package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Path and query parsing
	"time"     // Default stats year

	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/middleware" // Current user
	"expense_tracker/internal/notify"     // Admin notifications
	"expense_tracker/internal/repository" // Transaction persistence
	"expense_tracker/internal/stats"      // User statistics

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Amounts
	"github.com/sirupsen/logrus"    // Logging
)

// CreateTransactionRequest is the body of POST /transactions
type CreateTransactionRequest struct {
	Type        string           `json:"type" binding:"required,oneof=income expense"` // income or expense
	Amount      *decimal.Decimal `json:"amount" binding:"required,money"`              // Positive, cents precision, below 1e12
	Category    string           `json:"category" binding:"required,max=64"`           // Free-form label
	Description string           `json:"description" binding:"max=255"`                // Optional note
	Date        string           `json:"date" binding:"required"`                      // ISO date of the event
}

// UpdateTransactionRequest is the body of PUT /transactions/:id; absent fields stay unchanged.
// A client-supplied bsDate is ignored, it is always derived from date.
type UpdateTransactionRequest struct {
	Type        *string          `json:"type" binding:"omitempty,oneof=income expense"`
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,money"`
	Category    *string          `json:"category" binding:"omitempty,max=64"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Date        *string          `json:"date"`
}

func (r *CreateTransactionRequest) toDomain() (domain.NewTransaction, error) {
	date, ok := domain.ParseDate(r.Date)
	if !ok {
		v := domain.NewValidationError()
		v.Add("date", "must be an ISO date")
		return domain.NewTransaction{}, v
	}
	return domain.NewTransaction{
		Type:        domain.TransactionType(r.Type),
		Amount:      *r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        date,
	}, nil
}

func (r *UpdateTransactionRequest) toDomain() (domain.TransactionPatch, error) {
	patch := domain.TransactionPatch{
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.Type != nil {
		t := domain.TransactionType(*r.Type)
		patch.Type = &t
	}
	if r.Date != nil {
		date, ok := domain.ParseDate(*r.Date)
		if !ok {
			v := domain.NewValidationError()
			v.Add("date", "must be an ISO date")
			return patch, v
		}
		patch.Date = &date
	}
	return patch, nil
}

// transactionWithOwner is a transaction as admins see it in notifications
type transactionWithOwner struct {
	domain.Transaction
	User domain.Identity `json:"user"` // Shadows the embedded owner relation
}

// transactionEvent is the payload of transaction-added and transaction-updated
type transactionEvent struct {
	Transaction transactionWithOwner `json:"transaction"`
}

// transactionDeletedEvent is the payload of transaction-deleted
type transactionDeletedEvent struct {
	TransactionID uint            `json:"transactionId"`
	User          domain.Identity `json:"user"`
}

// broadcast notifies joined admins; a failure is logged and never fails the request
func broadcast(hub *notify.Hub, event string, payload any) {
	if hub == nil {
		return
	}
	if _, err := hub.Broadcast(event, payload); err != nil {
		logrus.WithError(err).WithField("event", event).Error("failed to broadcast")
	}
}

// transactionID parses :id; ids that cannot exist read as not found
func transactionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, domain.ErrNotFound, "Transaction")
		return 0, false
	}
	return uint(id), true
}

// ListTransactionsHandler returns the caller's transactions, optionally filtered by ?type
func ListTransactionsHandler(txs *repository.TransactionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter repository.TransactionFilter
		if raw := c.Query("type"); raw != "" {
			t := domain.TransactionType(raw)
			if !t.Valid() {
				v := domain.NewValidationError()
				v.Add("type", "must be income or expense")
				respondError(c, v, "Transaction")
				return
			}
			filter.Type = &t
		}
		list, err := txs.ListForOwner(c.Request.Context(), c.GetUint(middleware.KeyUserID), filter)
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "transactions": list})
	}
}

// CategoriesHandler returns the suggested categories per type
func CategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "categories": gin.H{
			"income":  domain.IncomeCategories,
			"expense": domain.ExpenseCategories,
		}})
	}
}

// GetTransactionHandler returns one of the caller's transactions
func GetTransactionHandler(txs *repository.TransactionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := transactionID(c)
		if !ok {
			return
		}
		t, err := txs.Get(c.Request.Context(), c.GetUint(middleware.KeyUserID), id)
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "transaction": t})
	}
}

// CreateTransactionHandler records a transaction and notifies admins
func CreateTransactionHandler(txs *repository.TransactionRepository, hub *notify.Hub, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest
		if !bindJSON(c, &req) {
			return
		}
		in, err := req.toDomain()
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		user := middleware.CurrentUser(c)
		t, err := txs.Create(c.Request.Context(), user.ID, in)
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":        user.ID,
			"transaction_id": t.ID,
			"type":           t.Type,
			"amount":         t.Amount.String(),
		}).Info("transaction created")

		invalidate(c, rdb, txsCacheNS)
		broadcast(hub, notify.EventTransactionAdded, transactionEvent{
			Transaction: transactionWithOwner{Transaction: *t, User: user.Identity()},
		})
		c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": t})
	}
}

// UpdateTransactionHandler changes one of the caller's transactions and notifies admins
func UpdateTransactionHandler(txs *repository.TransactionRepository, hub *notify.Hub, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := transactionID(c)
		if !ok {
			return
		}
		user := middleware.CurrentUser(c)
		// Someone else's id answers 404 whatever the body holds
		if _, err := txs.Get(c.Request.Context(), user.ID, id); err != nil {
			respondError(c, err, "Transaction")
			return
		}
		var req UpdateTransactionRequest
		if !bindJSON(c, &req) {
			return
		}
		patch, err := req.toDomain()
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		t, err := txs.Update(c.Request.Context(), user.ID, id, patch)
		if err != nil {
			respondError(c, err, "Transaction")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":        user.ID,
			"transaction_id": t.ID,
			"type":           t.Type,
			"amount":         t.Amount.String(),
		}).Info("transaction updated")

		invalidate(c, rdb, txsCacheNS)
		broadcast(hub, notify.EventTransactionUpdated, transactionEvent{
			Transaction: transactionWithOwner{Transaction: *t, User: user.Identity()},
		})
		c.JSON(http.StatusOK, gin.H{"success": true, "transaction": t})
	}
}

// DeleteTransactionHandler removes one of the caller's transactions and notifies admins
func DeleteTransactionHandler(txs *repository.TransactionRepository, hub *notify.Hub, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := transactionID(c)
		if !ok {
			return
		}
		user := middleware.CurrentUser(c)
		if err := txs.Delete(c.Request.Context(), user.ID, id); err != nil {
			respondError(c, err, "Transaction")
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "transaction_id": id}).Info("transaction deleted")

		invalidate(c, rdb, txsCacheNS)
		broadcast(hub, notify.EventTransactionDeleted, transactionDeletedEvent{TransactionID: id, User: user.Identity()})
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Transaction deleted"})
	}
}

// StatsHandler returns the caller's statistics
func StatsHandler(agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := agg.UserStats(c.Request.Context(), c.GetUint(middleware.KeyUserID))
		if err != nil {
			respondError(c, err, "Stats")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": st})
	}
}

// MonthlyStatsHandler returns the caller's per-month totals for ?year (default current year)
func MonthlyStatsHandler(agg *stats.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		year := time.Now().Year()
		if raw := c.Query("year"); raw != "" {
			y, err := strconv.Atoi(raw)
			if err != nil || y < 1900 || y > 9999 {
				v := domain.NewValidationError()
				v.Add("year", "must be a four digit year")
				respondError(c, v, "Stats")
				return
			}
			year = y
		}
		months, err := agg.MonthlyTotals(c.Request.Context(), c.GetUint(middleware.KeyUserID), year)
		if err != nil {
			respondError(c, err, "Stats")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "year": year, "months": months})
	}
}
