package api

type ProductUserwiseParams struct {
	StartDate string `schema:"start_date"`
	EndDate   string `schema:"end_date"`
}

type ProductUserwiseRow struct {
	Username    string `json:"username"`
	ProductName string `json:"product_name"`
	Score       int    `json:"score"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
}
