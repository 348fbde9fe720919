package api

type UploadResponse struct {
	Message   string `json:"message"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Response string `json:"response"`
}
