package store

// UsageRecord is one append-only row in the usage table: a completed
// analysis with its token accounting. Rows are never updated or deleted;
// a user's consumed quota is the count of their rows.
type UsageRecord struct {
	Username           string `dynamodbav:"username"`
	CreatedAt          string `dynamodbav:"datetime"`
	CompletionID       string `dynamodbav:"completion_id"`
	PromptTokens       int    `dynamodbav:"prompt_tokens"`
	CompletionTokens   int    `dynamodbav:"completion_tokens"`
	TotalTokens        int    `dynamodbav:"total_tokens"`
	InitialUploadLimit int    `dynamodbav:"initial_upload_limit"`
	PremiumUser        bool   `dynamodbav:"premium_user"`
	SlackWebhook       string `dynamodbav:"slack_webhook,omitempty"`
}

// SettingsRecord holds a user's notification preferences. Writes are
// upserts by convention: the table does not enforce uniqueness, readers
// take the first row returned for the username.
type SettingsRecord struct {
	Username          string `dynamodbav:"username"`
	SlackWebhook      string `dynamodbav:"slack_webhook,omitempty"`
	SendNotifications bool   `dynamodbav:"send_notifications"`
}
