package tenancy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates tenant with normalized slug", func(t *testing.T) {
		tenant, err := NewTenant("Acme Corp", "  ACME ", "Acme.Example.com")

		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", tenant.Name)
		assert.Equal(t, "acme", tenant.Slug)
		assert.Equal(t, "acme.example.com", tenant.Domain)
		assert.NotEqual(t, uuid.Nil, tenant.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTenant("  ", "acme", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("rejects invalid slug characters", func(t *testing.T) {
		_, err := NewTenant("Acme", "acme corp", "")
		assert.Error(t, err)
	})

	t.Run("rejects reserved slug", func(t *testing.T) {
		_, err := NewTenant("Auth", "auth", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reserved")
	})
}

func TestSite(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates site with rounded budget", func(t *testing.T) {
		site, err := NewSite(tenantID, "Head Office", "head-office", decimal.RequireFromString("1500.456"))

		require.NoError(t, err)
		assert.Equal(t, tenantID, site.TenantID)
		assert.True(t, decimal.RequireFromString("1500.46").Equal(site.Budget))
	})

	t.Run("rejects negative budget", func(t *testing.T) {
		_, err := NewSite(tenantID, "Depot", "depot", decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("sync budget overwrites default", func(t *testing.T) {
		site, err := NewSite(tenantID, "Depot", "depot", decimal.NewFromInt(100))
		require.NoError(t, err)

		site.SyncBudget(decimal.NewFromInt(750))
		assert.True(t, decimal.NewFromInt(750).Equal(site.Budget))
	})
}

func TestSiteBudget(t *testing.T) {
	tenantID, siteID := uuid.New(), uuid.New()

	t.Run("rejects month out of range", func(t *testing.T) {
		_, err := NewSiteBudget(tenantID, siteID, 2025, 13, decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("detects current month", func(t *testing.T) {
		b, err := NewSiteBudget(tenantID, siteID, 2025, 3, decimal.NewFromInt(10))
		require.NoError(t, err)

		assert.True(t, b.IsCurrentMonth(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)))
		assert.False(t, b.IsCurrentMonth(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("month range is half open", func(t *testing.T) {
		start, end := MonthRange(2024, 12)
		assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
	})
}

func TestNewBudgetSummary(t *testing.T) {
	siteID := uuid.New()

	t.Run("computes remaining and utilization", func(t *testing.T) {
		s := NewBudgetSummary(siteID, 2025, 5, decimal.NewFromInt(1000), decimal.RequireFromString("250.50"))

		assert.True(t, decimal.RequireFromString("749.50").Equal(s.Remaining))
		assert.True(t, decimal.RequireFromString("25.05").Equal(s.Utilization))
	})

	t.Run("remaining may go negative", func(t *testing.T) {
		s := NewBudgetSummary(siteID, 2025, 5, decimal.NewFromInt(100), decimal.NewFromInt(150))

		assert.True(t, decimal.NewFromInt(-50).Equal(s.Remaining))
		assert.True(t, decimal.NewFromInt(150).Equal(s.Utilization))
	})

	t.Run("zero budget reports zero utilization", func(t *testing.T) {
		s := NewBudgetSummary(siteID, 2025, 5, decimal.Zero, decimal.NewFromInt(300))

		assert.True(t, s.Utilization.IsZero())
		assert.True(t, decimal.NewFromInt(-300).Equal(s.Remaining))
	})
}
