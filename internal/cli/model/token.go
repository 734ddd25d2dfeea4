package model

// TokenPair — пара токенов сессии. Клиент не разбирает их содержимое.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Complete сообщает, что оба токена присутствуют.
func (p TokenPair) Complete() bool {
	return p.Access != "" && p.Refresh != ""
}
