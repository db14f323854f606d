package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	groupbuyapp "github.com/groupbuy/backend/internal/application/groupbuy"
	orderapp "github.com/groupbuy/backend/internal/application/order"
	"github.com/groupbuy/backend/internal/interfaces/http/dto"
)

func submitRequest(gb *groupbuyapp.GroupBuyResponse, memberID uuid.UUID, quantity int) orderapp.SubmitOrderRequest {
	return orderapp.SubmitOrderRequest{
		MemberID:   memberID,
		GroupBuyID: gb.ID,
		Items: []orderapp.SubmitOrderItem{
			{OptionID: gb.Options[0].ID, Quantity: quantity},
		},
	}
}

func TestOrderHandler_Submit_Success(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	c, w := jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, uuid.New(), 2))
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ORDERED", data["status"])
}

func TestOrderHandler_Submit_InsufficientStock(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	c, w := jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, uuid.New(), 11))
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
}

func TestOrderHandler_Submit_MemberLockHeld(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)
	memberID := uuid.New()

	_, acquired, err := f.memberLock.Acquire(context.Background(), memberID, gb.ID, orderapp.DefaultMemberLockTTL)
	require.NoError(t, err)
	require.True(t, acquired)

	c, w := jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, memberID, 1))
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusLocked, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeOrderInProgress, resp.Error.Code)
}

func TestOrderHandler_Submit_PersonalLimitExceeded(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)
	memberID := uuid.New()

	c, w := jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, memberID, 4))
	f.orderHandler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, memberID, 4))
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodePersonalLimitExceeded, resp.Error.Code)
}

func TestOrderHandler_Submit_UnknownOption(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	req := submitRequest(gb, uuid.New(), 1)
	req.Items[0].OptionID = uuid.New()
	c, w := jsonContext(t, http.MethodPost, "/orders", req)
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeOptionMismatch, resp.Error.Code)
}

func TestOrderHandler_Submit_ClosedGroupBuy(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)
	_, err := f.lifecycle.Close(context.Background(), gb.ID)
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodPost, "/orders", submitRequest(gb, uuid.New(), 1))
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeGroupBuyEnded, resp.Error.Code)
}

func TestOrderHandler_Submit_MissingItems(t *testing.T) {
	f := setupHandlerTest(t)

	req := orderapp.SubmitOrderRequest{MemberID: uuid.New(), GroupBuyID: uuid.New()}
	c, w := jsonContext(t, http.MethodPost, "/orders", req)
	f.orderHandler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Get_Success(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	submitted, err := f.admission.Submit(context.Background(), submitRequest(gb, uuid.New(), 2))
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodGet, "/orders/"+submitted.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: submitted.ID.String()}}
	f.orderHandler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestOrderHandler_Get_NotFound(t *testing.T) {
	f := setupHandlerTest(t)

	id := uuid.New()
	c, w := jsonContext(t, http.MethodGet, "/orders/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	f.orderHandler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_Refund_Success(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	submitted, err := f.admission.Submit(context.Background(), submitRequest(gb, uuid.New(), 3))
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodPost, "/orders/"+submitted.ID.String()+"/refund", nil)
	c.Params = gin.Params{{Key: "id", Value: submitted.ID.String()}}
	f.orderHandler.Refund(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "REFUNDED", data["status"])

	// refund returns the stock to the pool
	reloaded, err := f.lifecycle.Get(context.Background(), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Options[0].Stock)
}

func TestOrderHandler_Cancel_Success(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	submitted, err := f.admission.Submit(context.Background(), submitRequest(gb, uuid.New(), 3))
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodPost, "/orders/"+submitted.ID.String()+"/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: submitted.ID.String()}}
	f.orderHandler.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CANCELLED", data["status"])

	// cancel returns the stock to the pool
	reloaded, err := f.lifecycle.Get(context.Background(), gb.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Options[0].Stock)
}

func TestOrderHandler_Cancel_AfterRefund(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)

	submitted, err := f.admission.Submit(context.Background(), submitRequest(gb, uuid.New(), 1))
	require.NoError(t, err)
	_, err = f.admission.Refund(context.Background(), submitted.ID)
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodPost, "/orders/"+submitted.ID.String()+"/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: submitted.ID.String()}}
	f.orderHandler.Cancel(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestOrderHandler_ListByMember(t *testing.T) {
	f := setupHandlerTest(t)
	gb := seedOpenGroupBuy(t, f)
	memberID := uuid.New()

	_, err := f.admission.Submit(context.Background(), submitRequest(gb, memberID, 1))
	require.NoError(t, err)
	_, err = f.admission.Submit(context.Background(), submitRequest(gb, memberID, 2))
	require.NoError(t, err)
	_, err = f.admission.Submit(context.Background(), submitRequest(gb, uuid.New(), 1))
	require.NoError(t, err)

	c, w := jsonContext(t, http.MethodGet, "/members/"+memberID.String()+"/orders?page=1&page_size=20", nil)
	c.Params = gin.Params{{Key: "id", Value: memberID.String()}}
	f.orderHandler.ListByMember(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
}

func TestOrderHandler_ListByMember_InvalidID(t *testing.T) {
	f := setupHandlerTest(t)

	c, w := jsonContext(t, http.MethodGet, "/members/not-a-uuid/orders", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	f.orderHandler.ListByMember(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
