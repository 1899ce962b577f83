package transfer

type transferRequest struct {
	TransferID string `json:"transfer_id"`
	Token      string `json:"token"`
	Receiver   string `json:"receiver"`
	Amount     string `json:"amount"`
	Memo       string `json:"memo"`
}

type transferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
