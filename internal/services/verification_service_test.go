package services_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

var _ = Describe("VerificationService", func() {
	var (
		env  *testsupport.Env
		ctx  context.Context
		code string
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
		register(env, testPhone)
		code = env.Codes.Last()
	})

	Describe("VerifyAccount", func() {
		It("rejeita código errado e mantém o usuário pendente", func() {
			_, err := env.Verification.VerifyAccount(ctx, testPhone, "000000")
			Expect(err).To(MatchError(domainerrors.ErrInvalidCode))
			Expect(err).To(HaveErrorField("code"))

			stored := reload(env, testPhone)
			Expect(stored.IsVerified).To(BeFalse())
			Expect(stored.HasPendingVerification()).To(BeTrue())
		})

		It("rejeita código expirado exatamente no limite da janela", func() {
			env.Clock.Advance(10 * time.Minute)

			_, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).To(MatchError(domainerrors.ErrCodeExpired))
			Expect(reload(env, testPhone).IsVerified).To(BeFalse())
		})

		It("aceita o código até o último instante antes da expiração", func() {
			env.Clock.Advance(10*time.Minute - time.Second)

			user, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.IsVerified).To(BeTrue())
		})

		It("verifica a conta e limpa o código na mesma transação", func() {
			user, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.IsVerified).To(BeTrue())

			stored := reload(env, testPhone)
			Expect(stored.IsVerified).To(BeTrue())
			Expect(stored.VerificationCode).To(BeNil())
			Expect(stored.VerificationCodeExpires).To(BeNil())
			Expect(env.Publisher.Types()).To(ContainElement(entities.EventUserVerified))
		})

		It("não aceita o mesmo código duas vezes", func() {
			_, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).To(MatchError(domainerrors.ErrAlreadyVerified))
		})

		It("retorna NotFound para telefone desconhecido", func() {
			_, err := env.Verification.VerifyAccount(ctx, "+250788000999", code)
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
			Expect(err).To(HaveErrorField("phone_number"))
		})
	})

	Describe("SendVerificationCode", func() {
		It("substitui o código pendente e renova a janela", func() {
			env.Clock.Advance(9 * time.Minute)
			Expect(env.Verification.SendVerificationCode(ctx, testPhone)).To(Succeed())
			newCode := env.Codes.Last()
			Expect(newCode).NotTo(Equal(code))

			stored := reload(env, testPhone)
			Expect(stored.VerificationCodeExpires.Equal(env.Clock.Now().Add(10 * time.Minute))).To(BeTrue())

			_, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).To(MatchError(domainerrors.ErrInvalidCode))

			env.Clock.Advance(5 * time.Minute)
			_, err = env.Verification.VerifyAccount(ctx, testPhone, newCode)
			Expect(err).NotTo(HaveOccurred())

			messages := env.Notifier.Messages()
			Expect(messages).To(HaveLen(2))
			Expect(messages[1].Message).To(ContainSubstring(newCode))
		})

		It("recusa reenviar para conta já verificada", func() {
			_, err := env.Verification.VerifyAccount(ctx, testPhone, code)
			Expect(err).NotTo(HaveOccurred())

			err = env.Verification.SendVerificationCode(ctx, testPhone)
			Expect(err).To(MatchError(domainerrors.ErrAlreadyVerified))
			Expect(err).To(HaveKind(domainerrors.KindConflict))
		})

		It("retorna NotFound para telefone desconhecido", func() {
			err := env.Verification.SendVerificationCode(ctx, "+250788000999")
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})

		It("emite o código mesmo quando o SMS falha", func() {
			env.Notifier.SetFailing(true)
			Expect(env.Verification.SendVerificationCode(ctx, testPhone)).To(Succeed())

			Expect(*reload(env, testPhone).VerificationCode).To(Equal(env.Codes.Last()))
			events := env.Publisher.Events()
			Expect(events[len(events)-1].Attributes).To(HaveKeyWithValue("delivered", "false"))
		})

		It("envia a mensagem no idioma do contexto", func() {
			Expect(env.Verification.SendVerificationCode(ports.ContextWithLanguage(ctx, "pt-BR"), testPhone)).To(Succeed())

			messages := env.Notifier.Messages()
			Expect(messages[len(messages)-1].Message).To(Equal(
				env.I18n.T("pt-BR", "sms.verification_code", map[string]interface{}{"Code": env.Codes.Last(), "Minutes": 10}),
			))
			Expect(messages[len(messages)-1].Message).NotTo(Equal(messages[0].Message))
		})
	})
})
