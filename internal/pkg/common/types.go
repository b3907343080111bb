package common

// AIResponse AI 響應結構（OpenAI chat completions 格式）
type AIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatMessage 消息結構
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
