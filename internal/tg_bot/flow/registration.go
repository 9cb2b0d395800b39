package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/repository"
)

// Registration states.
const (
	RegName       models.StateID = "name"
	RegRole       models.StateID = "role"
	RegLevel      models.StateID = "level"
	RegDepartment models.StateID = "department"
	RegCode       models.StateID = "registrationCode"
)

// Roles a technician can register with.
var Roles = []string{"Mecânico", "Eletricista", "Outro"}

const messageCodeInUse = constant.EMOJI_WARNING + " Este número de matrícula já está em uso. Por favor, insira uma matrícula válida."

// RegistrationAnswers collects a new user profile.
// Fields are replaced, never written through, so a shallow copy is a safe clone.
type RegistrationAnswers struct {
	Name       *string
	Role       *string
	Level      *string
	Department *string
	Code       *string
}

func (a *RegistrationAnswers) Clone() models.Answers {
	c := *a
	return &c
}

func (a *RegistrationAnswers) Complete() error {
	return checkFields(
		field{"name", a.Name != nil},
		field{"role", a.Role != nil},
		field{"level", a.Level != nil},
		field{"department", a.Department != nil},
		field{"registrationCode", a.Code != nil},
	)
}

func registration(a models.Answers) *RegistrationAnswers {
	return a.(*RegistrationAnswers)
}

// Registration creates the profile of a user that has none yet.
// A registered user is greeted back instead.
func Registration(d Deps) *Definition {
	roleOptions := make([]models.Option, 0, len(Roles))
	for _, r := range Roles {
		roleOptions = append(roleOptions, models.Option{Label: r, Value: r})
	}

	return &Definition{
		ID:         FlowRegistration,
		Initial:    RegName,
		NewAnswers: func() models.Answers { return &RegistrationAnswers{} },
		Guard: func(ctx context.Context, userID int64) (string, error) {
			profile, err := d.Repo.FindUserByOwner(ctx, userID)
			if err != nil {
				return "", err
			}
			if profile != nil {
				return fmt.Sprintf("Bem-vindo(a) de volta, %s!", profile.Name), nil
			}
			return "", nil
		},
		FailureNotice: constant.EMOJI_CROSS_MARK + " Ocorreu um erro inesperado ao salvar o seu registo. Por favor, tente iniciar o processo novamente com /start.",
		States: map[models.StateID]State{
			RegName: {
				Kind:   FreeText,
				Prompt: Text("Olá! Parece que é a sua primeira vez no Kraflo.\nVamos começar o seu registo. Por favor, diga-me o seu nome completo."),
				Accept: func(a models.Answers, v Value) Transition {
					registration(a).Name = strPtr(v.Text)
					return GoTo(RegRole)
				},
			},
			RegRole: {
				Kind:    SingleChoice,
				Prompt:  Text("Ótimo! Agora, qual é a sua função?"),
				Options: StaticOptions(roleOptions...),
				Accept: func(a models.Answers, v Value) Transition {
					registration(a).Role = strPtr(v.Text)
					return GoTo(RegLevel)
				},
			},
			RegLevel: {
				Kind: FreeText,
				Prompt: func(a models.Answers) string {
					return fmt.Sprintf("Função definida: %s.\n\nQual é o seu nível? (Ex: Júnior, Pleno, Sénior)", *registration(a).Role)
				},
				Accept: func(a models.Answers, v Value) Transition {
					registration(a).Level = strPtr(v.Text)
					return GoTo(RegDepartment)
				},
			},
			RegDepartment: {
				Kind:   FreeText,
				Prompt: Text("Entendido. E qual é o seu setor de trabalho?"),
				Accept: func(a models.Answers, v Value) Transition {
					registration(a).Department = strPtr(v.Text)
					return GoTo(RegCode)
				},
			},
			RegCode: {
				Kind:   FreeText,
				Prompt: Text("Para finalizar, informe o seu número de matrícula (ou um código de registo único)."),
				Validate: func(ctx context.Context, _ *models.Session, v Value) error {
					exists, err := d.Repo.RegistrationCodeExists(ctx, v.Text)
					if err != nil {
						return fmt.Errorf("%w: %w", ErrLookupFailed, err)
					}
					if exists {
						return Invalid(messageCodeInUse)
					}
					return nil
				},
				Accept: func(a models.Answers, v Value) Transition {
					registration(a).Code = strPtr(v.Text)
					return Complete(d.createProfile)
				},
			},
		},
	}
}

func (d Deps) createProfile(ctx context.Context, userID int64, answers models.Answers) (Outcome, error) {
	a := registration(answers)
	err := d.Repo.CreateUserProfile(ctx, models.UserProfile{
		ChatID:           userID,
		Name:             *a.Name,
		Role:             *a.Role,
		Level:            *a.Level,
		Department:       *a.Department,
		RegistrationCode: *a.Code,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// The code was taken between the check and the insert, or the chat registered twice.
		return Outcome{}, Failure(messageCodeInUse+" Use /start para tentar novamente.", err)
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Notice: constant.EMOJI_OK + " Registo realizado com sucesso! Bem-vindo(a) ao Kraflo!"}, nil
}
