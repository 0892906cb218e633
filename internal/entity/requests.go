package entity

type SendRequest struct {
	Message string `json:"message" binding:"required"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}
