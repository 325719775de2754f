package constants

// HTTP状态码
const (
	HTTPOK           = 200
	HTTPBadRequest   = 400
	HTTPUnauthorized = 401
	HTTPNotFound     = 404
)

// SessionUserIDKey 会话中保存用户ID的键
const SessionUserIDKey = "user_id"

// APIKeysFieldName 请求体中携带提供商API密钥的字段名
const APIKeysFieldName = "apiKeys"

// EnvAPIKeys 可以从环境变量读取的提供商API密钥
var EnvAPIKeys = []string{"openai_api_key", "stabilityai_api_key", "replicate_api_key"}
