package user_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/entity"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/gateway"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/storage"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/usecase"
	"github.com/veedubyou/vocal-extractor-be/src/shared/testing"
)

type messageJSON struct {
	Message string `json:"message"`
}

type googleLoginJSON struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

var _ = Describe("User", func() {
	var (
		accountStore *userstorage.MemoryStore
		userGateway  usergateway.Gateway
	)

	BeforeEach(func() {
		accountStore = userstorage.NewMemoryStore()
		userUsecase := userusecase.NewUsecase(accountStore, testing.Validator{})
		userGateway = usergateway.NewGateway(userUsecase)
	})

	registerAccount := func(account testing.Account) *httptest.ResponseRecorder {
		request := testing.RequestFactory{
			Method: "POST",
			Target: "/register",
			JSONObj: map[string]string{
				"username": account.Username,
				"email":    account.Email,
				"password": account.Password,
			},
		}.MakeFake()
		response := httptest.NewRecorder()

		c := testing.PrepareEchoContext(request, response)
		err := userGateway.Register(c)
		Expect(err).NotTo(HaveOccurred())

		return response
	}

	loginAccount := func(username string, password string) *httptest.ResponseRecorder {
		request := testing.RequestFactory{
			Method: "POST",
			Target: "/login",
			JSONObj: map[string]string{
				"username": username,
				"password": password,
			},
		}.MakeFake()
		response := httptest.NewRecorder()

		c := testing.PrepareEchoContext(request, response)
		err := userGateway.Login(c)
		Expect(err).NotTo(HaveOccurred())

		return response
	}

	Describe("Register", func() {
		Describe("For a new username", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = registerAccount(testing.RegisteredAccount)
			})

			It("succeeds", func() {
				Expect(response.Code).To(Equal(http.StatusOK))
			})

			It("reports the registration", func() {
				message := testing.DecodeJSON[messageJSON](response.Body)
				Expect(message.Message).To(Equal("Registration successful"))
			})

			It("stores the account with a hashed password", func() {
				account, err := accountStore.GetAccount(context.Background(), testing.RegisteredAccount.Username)
				Expect(err).NotTo(HaveOccurred())

				Expect(account.Email).To(Equal(testing.RegisteredAccount.Email))
				Expect(account.PasswordHash).To(Equal(userentity.HashPassword(testing.RegisteredAccount.Password)))
				Expect(account.PasswordHash).NotTo(Equal(testing.RegisteredAccount.Password))
			})
		})

		Describe("For a duplicate username", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				registerAccount(testing.RegisteredAccount)
				response = registerAccount(testing.RegisteredAccount)
			})

			It("returns 400", func() {
				Expect(response.Code).To(Equal(http.StatusBadRequest))
			})

			It("reports the duplicate", func() {
				apiError := testing.DecodeJSONError(response.Body)
				Expect(apiError.Code).To(Equal("duplicate_username"))
				Expect(apiError.Msg).To(Equal("Username already exists"))
			})
		})

		Describe("With no password", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = registerAccount(testing.Account{
					Username: "passwordless",
					Email:    "passwordless@vocalextractor.com",
				})
			})

			It("returns 400", func() {
				Expect(response.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			registerAccount(testing.RegisteredAccount)
		})

		Describe("With the right password", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = loginAccount(testing.RegisteredAccount.Username, testing.RegisteredAccount.Password)
			})

			It("succeeds", func() {
				Expect(response.Code).To(Equal(http.StatusOK))
			})

			It("reports the login", func() {
				message := testing.DecodeJSON[messageJSON](response.Body)
				Expect(message.Message).To(Equal("Login successful"))
			})
		})

		Describe("With the wrong password", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = loginAccount(testing.RegisteredAccount.Username, "not-the-password")
			})

			It("returns 401", func() {
				Expect(response.Code).To(Equal(http.StatusUnauthorized))
			})

			It("reports invalid credentials", func() {
				apiError := testing.DecodeJSONError(response.Body)
				Expect(apiError.Code).To(Equal("invalid_credentials"))
				Expect(apiError.Msg).To(Equal("Invalid credentials"))
			})
		})

		Describe("For an unknown username", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = loginAccount(testing.UnregisteredAccount.Username, testing.UnregisteredAccount.Password)
			})

			It("returns 401", func() {
				Expect(response.Code).To(Equal(http.StatusUnauthorized))
			})

			It("reports the same invalid credentials as a wrong password", func() {
				apiError := testing.DecodeJSONError(response.Body)
				Expect(apiError.Code).To(Equal("invalid_credentials"))
				Expect(apiError.Msg).To(Equal("Invalid credentials"))
			})
		})
	})

	Describe("Forgot password", func() {
		forgotPassword := func(email string) *httptest.ResponseRecorder {
			request := testing.RequestFactory{
				Method: "POST",
				Target: "/forgot-password",
				JSONObj: map[string]string{
					"email": email,
				},
			}.MakeFake()
			response := httptest.NewRecorder()

			c := testing.PrepareEchoContext(request, response)
			err := userGateway.ForgotPassword(c)
			Expect(err).NotTo(HaveOccurred())

			return response
		}

		BeforeEach(func() {
			registerAccount(testing.RegisteredAccount)
		})

		Describe("For a registered email", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = forgotPassword(testing.RegisteredAccount.Email)
			})

			It("succeeds", func() {
				Expect(response.Code).To(Equal(http.StatusOK))
			})

			It("reports the simulated reset link", func() {
				message := testing.DecodeJSON[messageJSON](response.Body)
				Expect(message.Message).To(Equal("Password reset link sent (simulated)"))
			})
		})

		Describe("For an unknown email", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = forgotPassword(testing.UnregisteredAccount.Email)
			})

			It("still succeeds", func() {
				Expect(response.Code).To(Equal(http.StatusOK))
			})

			It("reports the noncommittal message", func() {
				message := testing.DecodeJSON[messageJSON](response.Body)
				Expect(message.Message).To(Equal("If an account exists, a reset link has been sent."))
			})
		})
	})

	Describe("Google login", func() {
		googleLogin := func(token string) *httptest.ResponseRecorder {
			request := testing.RequestFactory{
				Method: "POST",
				Target: "/google-login",
				JSONObj: map[string]string{
					"token": token,
				},
			}.MakeFake()
			response := httptest.NewRecorder()

			c := testing.PrepareEchoContext(request, response)
			err := userGateway.GoogleLogin(c)
			Expect(err).NotTo(HaveOccurred())

			return response
		}

		Describe("With a valid token", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = googleLogin(testing.TokenForGoogleID(testing.GoogleUser.GoogleID))
			})

			It("succeeds", func() {
				Expect(response.Code).To(Equal(http.StatusOK))
			})

			It("derives the username from the Google profile", func() {
				loginResponse := testing.DecodeJSON[googleLoginJSON](response.Body)
				Expect(loginResponse.Message).To(Equal("Google login successful"))
				Expect(loginResponse.Username).To(Equal("google_user_123456"))
			})

			It("creates the account", func() {
				account, err := accountStore.GetAccount(context.Background(), "google_user_123456")
				Expect(err).NotTo(HaveOccurred())

				Expect(account.GoogleID).To(Equal(testing.GoogleUser.GoogleID))
				Expect(account.Email).To(Equal(testing.GoogleUser.Email))
				Expect(account.PasswordHash).To(BeEmpty())
			})

			Describe("Logging in again", func() {
				var secondResponse *httptest.ResponseRecorder

				BeforeEach(func() {
					secondResponse = googleLogin(testing.TokenForGoogleID(testing.GoogleUser.GoogleID))
				})

				It("reuses the same account", func() {
					Expect(secondResponse.Code).To(Equal(http.StatusOK))

					loginResponse := testing.DecodeJSON[googleLoginJSON](secondResponse.Body)
					Expect(loginResponse.Username).To(Equal("google_user_123456"))
				})
			})
		})

		Describe("With an unverifiable token", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = googleLogin(testing.TokenForGoogleID(testing.GoogleStranger.GoogleID))
			})

			It("returns 401", func() {
				Expect(response.Code).To(Equal(http.StatusUnauthorized))
			})

			It("reports the failed verification", func() {
				apiError := testing.DecodeJSONError(response.Body)
				Expect(apiError.Code).To(Equal("failed_google_verification"))
			})

			It("doesn't create an account", func() {
				_, err := accountStore.GetAccount(context.Background(), "google_stranger_098765")
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("With no token", func() {
			var response *httptest.ResponseRecorder

			BeforeEach(func() {
				response = googleLogin("")
			})

			It("returns 400", func() {
				Expect(response.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})
})
