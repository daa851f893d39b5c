package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

func TestAgentContext_Append(t *testing.T) {
	ctx := &model.AgentContext{}
	ctx.Append(types.RoleClient, "hello")
	ctx.Append(types.RoleSalesman, "hi there")

	gt.Array(t, ctx.History).Length(2)
	gt.Value(t, ctx.History[0].Role).Equal(types.RoleClient)
	gt.Value(t, ctx.History[1].Content).Equal("hi there")
	gt.Bool(t, ctx.History[0].Timestamp.IsZero()).False()
}

func TestAgentContext_LastSalesmanMessage(t *testing.T) {
	t.Run("returns most recent salesman message", func(t *testing.T) {
		ctx := &model.AgentContext{}
		ctx.Append(types.RoleClient, "too expensive")
		ctx.Append(types.RoleSalesman, "first answer")
		ctx.Append(types.RoleClient, "still not convinced")
		ctx.Append(types.RoleSalesman, "second answer")

		gt.Value(t, ctx.LastSalesmanMessage()).Equal("second answer")
	})

	t.Run("empty when salesman has not spoken", func(t *testing.T) {
		ctx := &model.AgentContext{}
		ctx.Append(types.RoleClient, "too expensive")
		gt.Value(t, ctx.LastSalesmanMessage()).Equal("")
	})
}

func TestSession_Clone(t *testing.T) {
	s := &model.Session{
		ID: model.NewSessionID(),
		Context: model.AgentContext{
			ProfileDescription: "a skeptical CTO",
			CurrentObjection:   "price too high",
			AllObjections:      []string{"price too high", "security concerns"},
		},
		RoundCount: 3,
		Version:    2,
	}

	copied := s.Clone()
	copied.Context.AllObjections[0] = "mutated"
	copied.Context.Append(types.RoleClient, "extra")
	copied.RoundCount = 99

	gt.Value(t, s.Context.AllObjections[0]).Equal("price too high")
	gt.Array(t, s.Context.History).Length(0)
	gt.Number(t, s.RoundCount).Equal(3)
}

func TestSolution_Key(t *testing.T) {
	strategy := &model.Entity{EntityID: "s1", Type: types.EntityStrategy}
	technique := &model.Entity{EntityID: "t1", Type: types.EntityTechnique}
	outcome := &model.Entity{EntityID: "o1", Type: types.EntityOutcome}

	a := model.Solution{Strategy: strategy, Technique: technique, Outcome: outcome}
	b := model.Solution{Strategy: strategy.Clone(), Technique: technique.Clone(), Outcome: outcome.Clone()}

	gt.Value(t, a.Key()).Equal(b.Key())
}

func TestKnowledgeFile_Validate(t *testing.T) {
	t.Run("valid file passes", func(t *testing.T) {
		f := &model.KnowledgeFile{
			Profiles: []model.KnowledgeProfile{{
				ProfileID: "p1", Name: "Nexumora", Description: "mid-market CTO",
				Objections: []model.KnowledgeRecord{{
					ID: "o1", Description: "price too high",
					Strategies: []model.KnowledgeStrategy{{
						ID: "s1", Description: "reframe as investment",
						Techniques: []model.KnowledgeTechnique{{
							ID: "t1", Description: "ROI calculation",
							Outcome: &model.KnowledgeOutcome{ID: "ot1", Description: "budget approved"},
						}},
					}},
				}},
			}},
		}
		gt.NoError(t, f.Validate())
	})

	t.Run("duplicate IDs fail", func(t *testing.T) {
		f := &model.KnowledgeFile{
			Profiles: []model.KnowledgeProfile{
				{ProfileID: "p1", Name: "A"},
				{ProfileID: "p1", Name: "B"},
			},
		}
		gt.Value(t, f.Validate()).NotNil()
	})

	t.Run("missing ID fails", func(t *testing.T) {
		f := &model.KnowledgeFile{
			Profiles: []model.KnowledgeProfile{{Name: "A"}},
		}
		gt.Value(t, f.Validate()).NotNil()
	})
}
