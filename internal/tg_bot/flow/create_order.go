package flow

import (
	"context"
	"fmt"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// Create-order states.
const (
	CreateConfirm         models.StateID = "confirm"
	CreateMachineNumber   models.StateID = "machineNumber"
	CreateMachineModel    models.StateID = "machineModel"
	CreateMaintenanceType models.StateID = "maintenanceType"
	CreateProblem         models.StateID = "problemDescription"
)

// CreateOrderAnswers collects a new work order.
type CreateOrderAnswers struct {
	MachineNumber   *string
	MachineModel    *string
	MaintenanceType *models.MaintenanceType
	Problem         *string
}

func (a *CreateOrderAnswers) Clone() models.Answers {
	c := *a
	return &c
}

func (a *CreateOrderAnswers) Complete() error {
	return checkFields(
		field{"machineNumber", a.MachineNumber != nil},
		field{"machineModel", a.MachineModel != nil},
		field{"maintenanceType", a.MaintenanceType != nil},
		field{"problemDescription", a.Problem != nil},
	)
}

func createOrder(a models.Answers) *CreateOrderAnswers {
	return a.(*CreateOrderAnswers)
}

// CreateOrder opens a work order for a registered user.
func CreateOrder(d Deps) *Definition {
	typeOptions := make([]models.Option, 0, len(models.MaintenanceTypes))
	for _, t := range models.MaintenanceTypes {
		typeOptions = append(typeOptions, models.Option{Label: t.Label(), Value: string(t)})
	}

	return &Definition{
		ID:            FlowCreateOrder,
		Initial:       CreateConfirm,
		NewAnswers:    func() models.Answers { return &CreateOrderAnswers{} },
		Guard:         requireProfile(d.Repo, "Você precisa estar registado para criar uma OS. Use /start para se registar."),
		FailureNotice: constant.EMOJI_CROSS_MARK + " Ocorreu um erro ao criar a OS.",
		States: map[models.StateID]State{
			CreateConfirm: {
				Kind:    SingleChoice,
				Prompt:  Text("Vamos criar uma nova Ordem de Serviço. Deseja continuar?"),
				Options: yesNo,
				Accept: func(_ models.Answers, v Value) Transition {
					if v.Text == answerNo {
						return Cancelled("Criação de OS cancelada.")
					}
					return GoTo(CreateMachineNumber)
				},
			},
			CreateMachineNumber: {
				Kind:    NumericText,
				Prompt:  Text("Qual é o número da máquina?"),
				Invalid: constant.EMOJI_WARNING + " O número da máquina deve conter apenas dígitos. Por favor, digite novamente.",
				Accept: func(a models.Answers, v Value) Transition {
					createOrder(a).MachineNumber = strPtr(v.Text)
					return GoTo(CreateMachineModel)
				},
			},
			CreateMachineModel: {
				Kind:   FreeText,
				Prompt: Text("Ok. E qual é o modelo da máquina?"),
				Accept: func(a models.Answers, v Value) Transition {
					createOrder(a).MachineModel = strPtr(v.Text)
					return GoTo(CreateMaintenanceType)
				},
			},
			CreateMaintenanceType: {
				Kind:    SingleChoice,
				Prompt:  Text("Selecione o tipo de manutenção:"),
				Options: StaticOptions(typeOptions...),
				Accept: func(a models.Answers, v Value) Transition {
					// Options only carry valid types.
					t := models.MaintenanceType(v.Text)
					createOrder(a).MaintenanceType = &t
					return GoTo(CreateProblem)
				},
			},
			CreateProblem: {
				Kind: FreeText,
				Prompt: func(a models.Answers) string {
					return fmt.Sprintf("Tipo de manutenção: %s.\n\nAgora, descreva o problema encontrado.", createOrder(a).MaintenanceType.Label())
				},
				Accept: func(a models.Answers, v Value) Transition {
					createOrder(a).Problem = strPtr(v.Text)
					return Complete(d.insertWorkOrder)
				},
			},
		},
	}
}

func (d Deps) insertWorkOrder(ctx context.Context, userID int64, answers models.Answers) (Outcome, error) {
	a := createOrder(answers)
	id, err := d.Repo.CreateWorkOrder(ctx, models.WorkOrder{
		OwnerID:            userID,
		MachineNumber:      *a.MachineNumber,
		MachineModel:       *a.MachineModel,
		MaintenanceType:    *a.MaintenanceType,
		ProblemDescription: *a.Problem,
		OpenedAt:           d.now(),
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Notice: fmt.Sprintf("%s Ordem de Serviço #%d criada com sucesso!", constant.EMOJI_OK, id)}, nil
}
