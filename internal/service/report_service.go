package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"ID", "OrderNumber", "Customer", "Phone", "Table", "Items",
	"Total", "PaymentMethod", "PaymentStatus", "OrderStatus", "CreatedAt",
}

// ReportService выгрузка заказов ресторана в Excel (вкладка Reports)
type ReportService struct {
	orders repository.OrderRepository
	gate   *access.Gate
}

func NewReportService(orders repository.OrderRepository, gate *access.Gate) *ReportService {
	return &ReportService{orders: orders, gate: gate}
}

// ExportOrders builds a workbook with every order of the caller's restaurant
// matching f; paging fields of f are ignored.
func (s *ReportService) ExportOrders(ctx context.Context, p access.Principal, f repository.OrderFilter) (*xlsx.File, error) {
	if err := s.gate.Authorize(ctx, p, p.RestaurantID, domain.CapReports); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	f.RestaurantID = p.RestaurantID
	f.Limit = repository.MaxPageSize
	for f.Page = 1; ; f.Page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		orders, total, err := s.orders.List(ctx, f.Normalize())
		if err != nil {
			return nil, err
		}
		for i := range orders {
			writeOrderRow(sheet.AddRow(), &orders[i])
		}
		if len(orders) == 0 || int64(f.Page*f.Limit) >= total {
			break
		}
	}
	return file, nil
}

func writeOrderRow(row *xlsx.Row, o *domain.Order) {
	items := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	total, _ := o.TotalAmount.Float64()

	row.AddCell().SetValue(o.ID)
	row.AddCell().SetString(o.OrderNumber)
	row.AddCell().SetString(o.CustomerName)
	row.AddCell().SetString(o.CustomerPhone)
	row.AddCell().SetString(o.TableNumber)
	row.AddCell().SetString(strings.Join(items, ", "))
	row.AddCell().SetFloat(total)
	row.AddCell().SetString(string(o.PaymentMethod))
	row.AddCell().SetString(string(o.PaymentStatus))
	row.AddCell().SetString(string(o.OrderStatus))
	row.AddCell().SetString(o.CreatedAt.Format(exportTimeLayout))
}
