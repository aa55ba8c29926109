package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

func TestExportOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)

	const n = repository.MaxPageSize + 5
	for i := 0; i < n; i++ {
		in := f.checkout(domain.PaymentMethodCash)
		in.CustomerName = fmt.Sprintf("Guest %03d", i)
		_, err := f.orders.CreateOrder(ctx, in)
		require.NoError(t, err)
	}

	waiter := f.staff(t, "waiter@saravana.test", domain.CapOrders)
	_, err := f.reports.ExportOrders(ctx, waiter, repository.OrderFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	accountant := f.staff(t, "books@saravana.test", domain.CapReports)
	file, err := f.reports.ExportOrders(ctx, accountant, repository.OrderFilter{Page: 3, Limit: 1})
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, n+1, "header plus every order, paging ignored")
	assert.Equal(t, "OrderNumber", rows[0].Cells[1].Value)
	assert.Len(t, rows[1].Cells, len(exportHeaders))
	assert.Equal(t, "Dosa x2, Vada x1", rows[1].Cells[5].Value)
	assert.Equal(t, "pending", rows[1].Cells[9].Value)

	file, err = f.reports.ExportOrders(ctx, f.admin, repository.OrderFilter{Search: "guest 007"})
	require.NoError(t, err)
	assert.Len(t, file.Sheets[0].Rows, 2)

	file, err = f.reports.ExportOrders(ctx, f.otherAdmin, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, file.Sheets[0].Rows, 1, "other restaurant sees only the header")

	_, err = f.reports.ExportOrders(ctx, f.admin, repository.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
