package auth

type LoginData struct {
	AppName  string
	Username string
	Next     string
	Error    string
}
