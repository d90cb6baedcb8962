package handler

// VoidTransactionRequest voids a logged transaction
// @Description Request body for voiding a transaction
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Keyed twice"`
}

// AppendNoteRequest adds a clarification line to a transaction
// @Description Request body for appending a note
type AppendNoteRequest struct {
	Note string `json:"note" binding:"required,min=1,max=1000" example:"Customer paid with two cards"`
}

// TransactionQuery holds the filters of transaction listings
type TransactionQuery struct {
	Type          string `form:"type" binding:"omitempty,oneof=sale layby_payment layby_deposit refund adjustment other"`
	ReferenceType string `form:"reference_type" binding:"max=50"`
	ReferenceID   string `form:"reference_id" binding:"omitempty,uuid"`
	From          string `form:"from" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To            string `form:"to" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	IncludeVoided bool   `form:"include_voided"`
}
