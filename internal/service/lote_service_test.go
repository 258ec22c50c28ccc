package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"comandas/internal/dto"
	"comandas/internal/service"
	"comandas/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildLoteSvc() (service.LoteService, *store, *stubQueue, *stubLoteRepo) {
	st := newStore()
	q := &stubQueue{}
	lotes := &stubLoteRepo{s: st}
	svc := service.NewLoteService(lotes, &stubMovimientoRepo{s: st}, &stubIngredienteRepo{s: st}, q, nil)
	return svc, st, q, lotes
}

// xlsxFile builds an in-memory workbook with rows written from A1.
func xlsxFile(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRegistrarLote_OK(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	resp, err := svc.Registrar(context.Background(), dto.RegistrarLoteRequest{
		IngredienteID:    queso.ID.String(),
		Cantidad:         dec("12.5"),
		CostoUnitario:    dec("3.2"),
		FechaVencimiento: strPtr("2024-06-30"),
	})
	require.NoError(t, err)
	assert.True(t, dec("12.5").Equal(resp.CantidadRestante))
	assert.Equal(t, "2024-06-30", *resp.FechaVencimiento)
	assert.Equal(t, service.OrigenManual, resp.Origen)
	assert.Len(t, st.lotes, 1)
}

func TestRegistrarLote_FechaInvalida(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	_, err := svc.Registrar(context.Background(), dto.RegistrarLoteRequest{
		IngredienteID:    queso.ID.String(),
		Cantidad:         dec("1"),
		FechaVencimiento: strPtr("30/06/2024"),
	})
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
}

func TestRegistrarLote_IngredienteInexistente(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	_, err := svc.Registrar(context.Background(), dto.RegistrarLoteRequest{
		IngredienteID: uuid.New().String(),
		Cantidad:      dec("1"),
	})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestListarPorIngrediente_OrdenFIFOYAgotadosAlFinal(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	sinFecha := st.seedLote(queso.ID, "4", "1", "")
	agotado := st.seedLote(queso.ID, "0", "1", "2024-05-01")
	tardio := st.seedLote(queso.ID, "2", "1", "2024-08-01")
	temprano := st.seedLote(queso.ID, "3", "1", "2024-05-10")

	resp, err := svc.ListarPorIngrediente(context.Background(), queso.ID)
	require.NoError(t, err)

	require.Len(t, resp.Lotes, 4)
	want := []string{temprano.ID.String(), tardio.ID.String(), sinFecha.ID.String(), agotado.ID.String()}
	for i, l := range resp.Lotes {
		assert.Equal(t, want[i], l.ID, "posicion %d", i)
	}
	assert.Equal(t, 1, resp.Lotes[0].OrdenFIFO)
	assert.Equal(t, 3, resp.Lotes[2].OrdenFIFO)
	assert.Equal(t, 0, resp.Lotes[3].OrdenFIFO)
	assert.True(t, dec("9").Equal(resp.StockTotal))
}

func TestAjustarRestante_EncolaReconciliacion(t *testing.T) {
	svc, st, q, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "")

	resp, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("0"), Motivo: "merma"})
	require.NoError(t, err)
	assert.True(t, resp.CantidadRestante.IsZero())
	assert.True(t, st.lotes[l.ID].CantidadRestante.IsZero())

	require.Len(t, q.payloads, 1)
	assert.Equal(t, "ajuste_lote", q.payloads[0].Motivo)
	assert.Equal(t, l.ID.String(), q.payloads[0].Referencia)
}

func TestAjustarRestante_ColaCaidaNoFalla(t *testing.T) {
	svc, st, q, _ := buildLoteSvc()
	q.err = errors.New("redis caido")
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "")

	_, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("3")})
	require.NoError(t, err)

	q.err = worker.ErrSinCola
	_, err = svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("2")})
	require.NoError(t, err)
}

func TestAjustarRestante_SuperaInicial(t *testing.T) {
	svc, st, q, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "") // inicial 100

	_, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("101")})
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	_, err = svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("-1")})
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.Empty(t, q.payloads)
}

func TestAjustarRestante_Inexistente(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	_, err := svc.AjustarRestante(context.Background(), uuid.New(), dto.AjustarRestanteRequest{CantidadRestante: dec("1")})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestImportarXLSX_OK(t *testing.T) {
	svc, st, _, lotes := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	harina := st.seedIngrediente("Harina")

	buf := xlsxFile(t,
		[]interface{}{"Vencimiento", "ingrediente_id", "cantidad", "costo_unitario"},
		[]interface{}{"2024-07-01", queso.ID.String(), "5", "2.5"},
		[]interface{}{},
		[]interface{}{"", harina.ID.String(), "25", "0.8"},
	)

	resp, err := svc.ImportarXLSX(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Importados)
	assert.Equal(t, 1, lotes.batches)
	assert.Len(t, st.lotes, 2)
	assert.Equal(t, "2024-07-01", *resp.Lotes[0].FechaVencimiento)
	assert.Nil(t, resp.Lotes[1].FechaVencimiento)
	assert.Equal(t, service.OrigenXLSX, resp.Lotes[1].Origen)
}

func TestImportarXLSX_FilaInvalidaAbortaTodo(t *testing.T) {
	svc, st, _, lotes := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad", "costo_unitario"},
		[]interface{}{queso.ID.String(), "5", "2.5"},
		[]interface{}{queso.ID.String(), "0", "2.5"},
	)

	_, err := svc.ImportarXLSX(context.Background(), buf)
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.ErrorContains(t, err, "fila 3")
	assert.Equal(t, 0, lotes.batches)
	assert.Empty(t, st.lotes)
}

func TestImportarXLSX_IngredienteDesconocido(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad", "costo_unitario"},
		[]interface{}{uuid.New().String(), "5", "2.5"},
	)

	_, err := svc.ImportarXLSX(context.Background(), buf)
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.ErrorContains(t, err, "fila 2")
}

func TestImportarXLSX_FaltaColumna(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad"},
		[]interface{}{uuid.New().String(), "5"},
	)

	_, err := svc.ImportarXLSX(context.Background(), buf)
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.ErrorContains(t, err, "costo_unitario")
}

func TestImportarXLSX_ArchivoIlegible(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	_, err := svc.ImportarXLSX(context.Background(), bytes.NewBufferString("no es un xlsx"))
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
}

func TestMovimientos_RegistradosPorCadaCambio(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	ctx := context.Background()

	alta, err := svc.Registrar(ctx, dto.RegistrarLoteRequest{IngredienteID: queso.ID.String(), Cantidad: dec("8"), CostoUnitario: dec("2")})
	require.NoError(t, err)
	assert.NotEmpty(t, alta.CreatedAt)
	loteID := uuid.MustParse(alta.ID)

	_, err = svc.AjustarRestante(ctx, loteID, dto.AjustarRestanteRequest{CantidadRestante: dec("5"), Motivo: "conteo fisico"})
	require.NoError(t, err)

	resp, err := svc.ListarMovimientos(ctx, loteID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.Limit)
	require.Len(t, resp.Data, 2)

	ajuste := resp.Data[0]
	assert.Equal(t, "ajuste", ajuste.Tipo)
	assert.True(t, dec("8").Equal(ajuste.CantidadAnterior))
	assert.True(t, dec("5").Equal(ajuste.CantidadNueva))
	assert.Equal(t, "conteo fisico", ajuste.Motivo)

	apertura := resp.Data[1]
	assert.Equal(t, "alta", apertura.Tipo)
	assert.True(t, apertura.CantidadAnterior.IsZero())
	assert.True(t, dec("8").Equal(apertura.CantidadNueva))
}

func TestMovimientos_Importacion(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad", "costo_unitario"},
		[]interface{}{queso.ID.String(), "5", "2.5"},
		[]interface{}{queso.ID.String(), "7", "2.4"},
	)
	_, err := svc.ImportarXLSX(context.Background(), buf)
	require.NoError(t, err)

	require.Len(t, st.movimientos, 2)
	for _, m := range st.movimientos {
		assert.Equal(t, "importacion", m.Tipo)
		assert.Equal(t, queso.ID, m.IngredienteID)
	}
}

func TestMovimientos_FalloAbortaAjuste(t *testing.T) {
	st := newStore()
	q := &stubQueue{}
	svc := service.NewLoteService(&stubLoteRepo{s: st}, &stubMovimientoRepo{s: st, err: errors.New("db caida")}, &stubIngredienteRepo{s: st}, q, nil)
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "")

	_, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("1")})
	require.Error(t, err)
	assert.Empty(t, q.payloads)
}

func TestListarMovimientos_LoteInexistente(t *testing.T) {
	svc, _, _, _ := buildLoteSvc()
	_, err := svc.ListarMovimientos(context.Background(), uuid.New(), 1, 10)
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestImportarXLSX_EmpatesSiguenOrdenDeFilas(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad", "costo_unitario", "vencimiento"},
		[]interface{}{queso.ID.String(), "5", "1", "2030-03-01"},
		[]interface{}{queso.ID.String(), "6", "1", "2030-03-01"},
		[]interface{}{queso.ID.String(), "7", "1", "2030-03-01"},
		[]interface{}{queso.ID.String(), "8", "1", "2030-03-01"},
	)
	_, err := svc.ImportarXLSX(context.Background(), buf)
	require.NoError(t, err)

	resp, err := svc.ListarPorIngrediente(context.Background(), queso.ID)
	require.NoError(t, err)
	require.Len(t, resp.Lotes, 4)
	for i, want := range []string{"5", "6", "7", "8"} {
		assert.True(t, dec(want).Equal(resp.Lotes[i].CantidadInicial), "posicion %d", i)
		assert.Equal(t, i+1, resp.Lotes[i].OrdenFIFO)
	}
}

func TestRegistrarLote_FueraDeColumna(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	casos := []struct {
		nombre   string
		cantidad string
		costo    string
	}{
		{"cantidad con 4 decimales", "0.0004", "1"},
		{"cantidad demasiado grande", "1000000000", "1"},
		{"costo con 5 decimales", "1", "1.23456"},
		{"costo demasiado grande", "1", "100000000"},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			_, err := svc.Registrar(context.Background(), dto.RegistrarLoteRequest{
				IngredienteID: queso.ID.String(),
				Cantidad:      dec(c.cantidad),
				CostoUnitario: dec(c.costo),
			})
			assert.ErrorIs(t, err, service.ErrEntradaInvalida)
		})
	}
	assert.Empty(t, st.lotes)

	resp, err := svc.Registrar(context.Background(), dto.RegistrarLoteRequest{
		IngredienteID: queso.ID.String(),
		Cantidad:      dec("2.500"),
		CostoUnitario: dec("1.23450"),
	})
	require.NoError(t, err)
	assert.True(t, dec("1.2345").Equal(resp.CostoUnitario))
}

func TestAjustarRestante_FueraDeColumna(t *testing.T) {
	svc, st, q, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "")

	_, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("1.0005")})
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.True(t, dec("10").Equal(st.lotes[l.ID].CantidadRestante))
	assert.Empty(t, q.payloads)
}

func TestImportarXLSX_FueraDeColumna(t *testing.T) {
	svc, st, _, _ := buildLoteSvc()
	queso := st.seedIngrediente("Queso")

	buf := xlsxFile(t,
		[]interface{}{"ingrediente_id", "cantidad", "costo_unitario"},
		[]interface{}{queso.ID.String(), "0.0004", "2.5"},
	)
	_, err := svc.ImportarXLSX(context.Background(), buf)
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
	assert.ErrorContains(t, err, "fila 2")
	assert.Empty(t, st.lotes)
}

func TestAjustarRestante_AnteriorLeidoDentroDeLaTransaccion(t *testing.T) {
	st := newStore()
	lotes := &stubLoteRepo{s: st}
	svc := service.NewLoteService(lotes, &stubMovimientoRepo{s: st}, &stubIngredienteRepo{s: st}, &stubQueue{}, nil)
	queso := st.seedIngrediente("Queso")
	l := st.seedLote(queso.ID, "10", "1", "")

	// Another adjustment commits right after any unlocked read of the lot.
	lotes.afterRead = func(id uuid.UUID) {
		st.lotes[id].CantidadRestante = dec("7")
	}

	_, err := svc.AjustarRestante(context.Background(), l.ID, dto.AjustarRestanteRequest{CantidadRestante: dec("4")})
	require.NoError(t, err)

	require.Len(t, lotes.restanteAlEscribir, 1)
	require.Len(t, st.movimientos, 1)
	assert.True(t, lotes.restanteAlEscribir[0].Equal(st.movimientos[0].CantidadAnterior),
		"anterior %s, reemplazado %s", st.movimientos[0].CantidadAnterior, lotes.restanteAlEscribir[0])
}
