// AngelaMos | 2026
// export_test.go

package medicine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportInventory(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	createMedicine(t, svc, tenantA, medicineRequest("Paracetamol", 10, 20, 5))
	createMedicine(t, svc, tenantA, medicineRequest("Ibuprofen", 30, 5, 2))
	createMedicine(t, svc, tenantB, medicineRequest("Foreign", 99, 1, 1))

	buf, err := svc.ExportInventory(ctx, tenantA)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, inventoryHeaders, rows[0])
	assert.Equal(t, "Ibuprofen", rows[1][0])
	assert.Equal(t, "Paracetamol", rows[2][0])
	assert.Equal(t, string(LowStock), rows[2][10])

	assert.Equal(t, "Total", rows[3][0])
	total, err := f.GetCellValue(inventorySheet, "O4")
	require.NoError(t, err)
	assert.Equal(t, "110", total)
}

func TestExportInventory_Empty(t *testing.T) {
	svc, _ := newTestService(t, 0)

	buf, err := svc.ExportInventory(context.Background(), tenantA)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
