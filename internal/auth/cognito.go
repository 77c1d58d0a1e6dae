package auth

// Package auth implements the session.Provider interface on top of Amazon
// Cognito user pools. All calls used here are the unauthenticated app-client
// operations (sign-up, confirm, USER_PASSWORD_AUTH, get-user, global
// sign-out), so the SDK client runs with anonymous credentials.

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"puzzle-helper/internal/session"
)

// Cognito talks to one Cognito user pool app client.
type Cognito struct {
	client   *cip.Client
	clientID string
}

var _ session.Provider = (*Cognito)(nil)

// NewCognito builds a provider for the given region and app client id.
func NewCognito(ctx context.Context, region, clientID string) (*Cognito, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := cip.NewFromConfig(cfg, func(o *cip.Options) {
		o.Credentials = aws.AnonymousCredentials{}
	})

	return &Cognito{client: client, clientID: clientID}, nil
}

// SignUp creates an unconfirmed account. The pool emails a confirmation code
// that must be fed to ConfirmSignUp before the account is usable.
func (c *Cognito) SignUp(ctx context.Context, email, password string) error {
	_, err := c.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	return err
}

// ConfirmSignUp finalizes a registration with the emailed code.
func (c *Cognito) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	return err
}

// SignIn performs a USER_PASSWORD_AUTH flow and returns the issued tokens.
func (c *Cognito) SignIn(ctx context.Context, email, password string) (session.Tokens, error) {
	out, err := c.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return session.Tokens{}, err
	}
	if out.AuthenticationResult == nil {
		// A challenge (MFA, forced password change) was returned instead of
		// tokens. The CLI does not drive challenge flows.
		return session.Tokens{}, errors.New("sign-in requires an additional challenge, complete it in the web app first")
	}

	res := out.AuthenticationResult
	return session.Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
	}, nil
}

// SignOut invalidates every token issued to the user.
func (c *Cognito) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.client.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return err
}

// CurrentUser resolves the identity behind an access token.
func (c *Cognito) CurrentUser(ctx context.Context, accessToken string) (session.Identity, error) {
	out, err := c.client.GetUser(ctx, &cip.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return session.Identity{}, err
	}

	ident := session.Identity{UserID: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			ident.UserID = aws.ToString(attr.Value)
		case "email":
			ident.Email = aws.ToString(attr.Value)
		}
	}
	if ident.UserID == "" {
		return session.Identity{}, errors.New("identity provider returned no user id")
	}
	return ident, nil
}
