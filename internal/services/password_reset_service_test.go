package services_test

import (
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/services"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

const newPassword = "N3wPassw0rd!"

var _ = Describe("PasswordResetService", func() {
	var (
		env *testsupport.Env
		ctx context.Context
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
		register(env, testPhone)
	})

	Describe("RequestPasswordReset", func() {
		It("emite o código e envia o SMS para conta ativa", func() {
			Expect(env.Reset.RequestPasswordReset(ctx, testPhone)).To(Succeed())
			code := env.Codes.Last()

			stored := reload(env, testPhone)
			Expect(*stored.PasswordResetToken).To(Equal(code))
			Expect(stored.PasswordResetExpires.Equal(env.Clock.Now().Add(15 * time.Minute))).To(BeTrue())

			messages := env.Notifier.Messages()
			Expect(messages[len(messages)-1].Message).To(ContainSubstring(code))
			Expect(messages[len(messages)-1].Message).To(ContainSubstring("15 minutes"))
			Expect(env.Publisher.Types()).To(ContainElement(entities.EventPasswordResetRequested))
		})

		DescribeTable("responde igual sem revelar se a conta existe",
			func(phone string, prepare func(env *testsupport.Env)) {
				if prepare != nil {
					prepare(env)
				}
				sent := len(env.Notifier.Messages())
				events := len(env.Publisher.Events())
				generated := env.Codes.Last()

				Expect(env.Reset.RequestPasswordReset(ctx, phone)).To(Succeed())

				Expect(env.Notifier.Messages()).To(HaveLen(sent))
				Expect(env.Publisher.Events()).To(HaveLen(events))
				// O custo de gerar o código é pago mesmo sem conta
				Expect(env.Codes.Last()).NotTo(Equal(generated))
			},
			Entry("telefone desconhecido", "+250788000999", nil),
			Entry("telefone malformado", "12345", nil),
			Entry("conta inativa", testPhone, func(env *testsupport.Env) {
				admin := makeAdmin(env, "+250788000900")
				_, err := env.Users.SetUserActive(context.Background(), admin, reload(env, testPhone).ID, false)
				Expect(err).NotTo(HaveOccurred())
			}),
		)

		It("não toca no canal de verificação", func() {
			verification := *reload(env, testPhone).VerificationCode

			Expect(env.Reset.RequestPasswordReset(ctx, testPhone)).To(Succeed())

			stored := reload(env, testPhone)
			Expect(*stored.VerificationCode).To(Equal(verification))
			Expect(stored.IsVerified).To(BeFalse())
		})

		It("usa token URL-safe quando a política pede", func() {
			env.Policy.ResetCodeStyle = services.ResetCodeToken
			env.Rebuild()

			Expect(env.Reset.RequestPasswordReset(ctx, testPhone)).To(Succeed())
			Expect(strings.HasPrefix(*reload(env, testPhone).PasswordResetToken, "token-")).To(BeTrue())
		})
	})

	Describe("ResetPassword", func() {
		var code string

		BeforeEach(func() {
			Expect(env.Reset.RequestPasswordReset(ctx, testPhone)).To(Succeed())
			code = env.Codes.Last()
		})

		It("troca a senha, limpa o canal e publica o evento", func() {
			Expect(env.Reset.ResetPassword(ctx, testPhone, code, newPassword)).To(Succeed())

			_, err := env.Users.Login(ctx, testPhone, newPassword)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.Users.Login(ctx, testPhone, testPassword)
			Expect(err).To(MatchError(domainerrors.ErrInvalidCredentials))

			stored := reload(env, testPhone)
			Expect(stored.HasPendingPasswordReset()).To(BeFalse())
			Expect(env.Publisher.Types()).To(ContainElement(entities.EventPasswordReset))
		})

		It("não aceita o mesmo código duas vezes", func() {
			Expect(env.Reset.ResetPassword(ctx, testPhone, code, newPassword)).To(Succeed())

			err := env.Reset.ResetPassword(ctx, testPhone, code, "An0therPass!")
			Expect(err).To(MatchError(domainerrors.ErrNoPendingCode))
			Expect(err).To(HaveKind(domainerrors.KindInvalid))
		})

		It("rejeita código errado sem alterar a senha", func() {
			err := env.Reset.ResetPassword(ctx, testPhone, "000000", newPassword)
			Expect(err).To(MatchError(domainerrors.ErrInvalidCode))

			_, err = env.Users.Login(ctx, testPhone, testPassword)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejeita código expirado", func() {
			env.Clock.Advance(15 * time.Minute)

			err := env.Reset.ResetPassword(ctx, testPhone, code, newPassword)
			Expect(err).To(MatchError(domainerrors.ErrCodeExpired))
		})

		It("rejeita nova senha vazia", func() {
			err := env.Reset.ResetPassword(ctx, testPhone, code, "")
			Expect(err).To(HaveKind(domainerrors.KindInvalid))
			Expect(err).To(HaveErrorField("new_password"))
		})

		It("retorna NotFound para telefone desconhecido", func() {
			err := env.Reset.ResetPassword(ctx, "+250788000999", code, newPassword)
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})
	})
})
