package dto

type ReconcileResponse struct {
	Transitioned int `json:"transitioned"`
}

type PenaltyRunResponse struct {
	Created  int `json:"created"`
	Enqueued int `json:"enqueued"`
}
