package app

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

var authorizeTemplate = template.Must(template.New("authorize").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Torneio Maker - Vincular conta</title>
</head>
<body>
<h1>Vincular conta</h1>
<p>Token de vinculação: <code id="account-linking-token">{{.AccountLinkingToken}}</code></p>
<p><a id="complete" href="{{.RedirectURISuccess}}">Concluir vinculação</a></p>
<p><a id="cancel" href="{{.RedirectURI}}">Cancelar</a></p>
</body>
</html>
`))

type authorizePage struct {
	AccountLinkingToken string
	RedirectURI         string
	RedirectURISuccess  string
}

// authorizeHandler renders the account linking page. Completing the link
// sends the user back to redirect_uri with the configured authorization code.
func authorizeHandler(authCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectURI := c.Query("redirect_uri")
		page := authorizePage{
			AccountLinkingToken: c.Query("account_linking_token"),
			RedirectURI:         redirectURI,
			RedirectURISuccess:  redirectURI + "&authorization_code=" + authCode,
		}

		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		if err := authorizeTemplate.Execute(c.Writer, page); err != nil {
			_ = c.Error(err)
		}
	}
}
