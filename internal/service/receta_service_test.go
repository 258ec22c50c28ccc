package service_test

import (
	"context"
	"testing"

	"comandas/internal/costing"
	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecetaSvc() (service.RecetaService, *store, *stubRecetaRepo) {
	st := newStore()
	recetas := &stubRecetaRepo{s: st}
	svc := service.NewRecetaService(
		recetas,
		&stubIngredienteRepo{s: st},
		&stubPlatoRepo{s: st},
		&stubLoteRepo{s: st},
		&stubCorreccionRepo{s: st},
		nil,
	)
	return svc, st, recetas
}

func TestCrearReceta_OK(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	pizza := st.seedPlato("Pizza")
	variante := uuid.New().String()

	resp, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
		PlatoID:           pizza.ID.String(),
		VarianteID:        &variante,
		IngredienteID:     queso.ID.String(),
		CantidadPorUnidad: dec("0.25"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Activo)
	assert.Equal(t, variante, *resp.VarianteID)
	assert.Nil(t, resp.LoteAsignadoID)
	assert.Len(t, st.recetas, 1)
}

func TestCrearReceta_CantidadFueraDeColumna(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	pizza := st.seedPlato("Pizza")

	// 0.00004 would be stored as 0.0000; 1e8 does not fit numeric(12,4).
	for _, q := range []string{"0.00004", "0.12345", "100000000"} {
		_, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
			PlatoID:           pizza.ID.String(),
			IngredienteID:     queso.ID.String(),
			CantidadPorUnidad: dec(q),
		})
		var cfgErr *costing.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, q)
		assert.Equal(t, "cantidad_por_unidad", cfgErr.Field, q)
	}
	assert.Empty(t, st.recetas)

	resp, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
		PlatoID:           pizza.ID.String(),
		IngredienteID:     queso.ID.String(),
		CantidadPorUnidad: dec("0.12500"),
	})
	require.NoError(t, err)
	assert.True(t, dec("0.125").Equal(resp.CantidadPorUnidad))
}

func TestCrearReceta_CantidadNoPositiva(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	pizza := st.seedPlato("Pizza")

	for _, q := range []string{"0", "-2"} {
		_, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
			PlatoID:           pizza.ID.String(),
			IngredienteID:     queso.ID.String(),
			CantidadPorUnidad: dec(q),
		})
		var cfgErr *costing.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr, q)
	}
	assert.Empty(t, st.recetas)
}

func TestCrearReceta_IngredienteInexistente(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	pizza := st.seedPlato("Pizza")

	_, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
		PlatoID:           pizza.ID.String(),
		IngredienteID:     uuid.New().String(),
		CantidadPorUnidad: dec("1"),
	})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestCrearReceta_PinDeOtroIngrediente(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	harina := st.seedIngrediente("Harina")
	loteHarina := st.seedLote(harina.ID, "5", "1", "")
	pizza := st.seedPlato("Pizza")

	_, err := svc.Crear(context.Background(), dto.CrearRecetaRequest{
		PlatoID:           pizza.ID.String(),
		IngredienteID:     queso.ID.String(),
		CantidadPorUnidad: dec("1"),
		LoteAsignadoID:    strPtr(loteHarina.ID.String()),
	})
	assert.ErrorIs(t, err, service.ErrLoteInvalido)
}

func TestAsignarLote_FijaYAudita(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	lote := st.seedLote(queso.ID, "5", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	resp, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(lote.ID.String())})
	require.NoError(t, err)
	assert.Equal(t, lote.ID.String(), *resp.LoteAsignadoID)
	assert.Equal(t, lote.ID, *st.recetas[r.ID].LoteAsignadoID)

	require.Len(t, st.correcciones, 1)
	assert.Equal(t, model.MotivoManual, st.correcciones[0].Motivo)
	assert.Nil(t, st.correcciones[0].LoteAnteriorID)
}

func TestAsignarLote_Limpiar(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	lote := st.seedLote(queso.ID, "5", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", uuidPtr(lote.ID))

	resp, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.LoteAsignadoID)
	assert.Nil(t, st.recetas[r.ID].LoteAsignadoID)
	require.Len(t, st.correcciones, 1)
	assert.Nil(t, st.correcciones[0].LoteNuevoID)
}

func TestAsignarLote_MismoLoteNoAudita(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	lote := st.seedLote(queso.ID, "5", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", uuidPtr(lote.ID))

	_, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(lote.ID.String())})
	require.NoError(t, err)
	assert.Empty(t, st.correcciones)
}

func TestAsignarLote_LoteAgotado(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	agotado := st.seedLote(queso.ID, "0", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	_, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(agotado.ID.String())})
	assert.ErrorIs(t, err, service.ErrLoteInvalido)
	assert.Nil(t, st.recetas[r.ID].LoteAsignadoID)
}

func TestAsignarLote_LoteInexistente(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	_, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(uuid.New().String())})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestAsignarLote_ConflictoConcurrente(t *testing.T) {
	svc, st, recetas := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	a := st.seedLote(queso.ID, "5", "2", "")
	b := st.seedLote(queso.ID, "5", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	recetas.beforeCAS = func(id uuid.UUID) { st.recetas[id].LoteAsignadoID = uuidPtr(b.ID) }

	_, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(a.ID.String())})
	assert.ErrorIs(t, err, service.ErrConflicto)
	assert.Equal(t, b.ID, *st.recetas[r.ID].LoteAsignadoID)
	assert.Empty(t, st.correcciones)
}

func TestDesactivarReceta(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	require.NoError(t, svc.Desactivar(context.Background(), r.ID))
	assert.False(t, st.recetas[r.ID].Activo)
	assert.ErrorIs(t, svc.Desactivar(context.Background(), uuid.New()), service.ErrNoEncontrado)
}

func TestListarCorrecciones(t *testing.T) {
	svc, st, _ := buildRecetaSvc()
	queso := st.seedIngrediente("Queso")
	a := st.seedLote(queso.ID, "5", "2", "")
	b := st.seedLote(queso.ID, "5", "2", "")
	pizza := st.seedPlato("Pizza")
	r := st.seedReceta(pizza.ID, queso.ID, "1", nil)

	_, err := svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(a.ID.String())})
	require.NoError(t, err)
	_, err = svc.AsignarLote(context.Background(), r.ID, dto.AsignarLoteRequest{LoteID: strPtr(b.ID.String())})
	require.NoError(t, err)

	resp, err := svc.ListarCorrecciones(context.Background(), r.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.Limit)
	// newest first
	assert.Equal(t, b.ID.String(), *resp.Data[0].LoteNuevoID)
	assert.Equal(t, a.ID.String(), *resp.Data[0].LoteAnteriorID)
}
