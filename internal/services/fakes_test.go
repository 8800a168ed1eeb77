package services

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/querypilot/querypilot-backend/internal/bridge"
)

// fakeGateway is a scriptable bridge.Gateway that records every call.
type fakeGateway struct {
	connectResult *bridge.ConnectResult
	connectErr    error
	connectCalls  int
	lastConnect   bridge.ConnectPayload

	prepareResult *bridge.PrepareResult
	prepareErr    error
	prepareCalls  int
	lastPrepare   bridge.PreparePayload

	executeResp  *bridge.ExecuteResponse
	executeErr   error
	executeCalls int
	lastExecute  bridge.ExecutePayload
}

func (f *fakeGateway) Connect(ctx context.Context, payload bridge.ConnectPayload) (*bridge.ConnectResult, error) {
	f.connectCalls++
	f.lastConnect = payload
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	if f.connectResult != nil {
		return f.connectResult, nil
	}
	return &bridge.ConnectResult{}, nil
}

func (f *fakeGateway) PrepareRAG(ctx context.Context, payload bridge.PreparePayload) (*bridge.PrepareResult, error) {
	f.prepareCalls++
	f.lastPrepare = payload
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	if f.prepareResult != nil {
		return f.prepareResult, nil
	}
	return &bridge.PrepareResult{RAGReady: true}, nil
}

func (f *fakeGateway) Execute(ctx context.Context, payload bridge.ExecutePayload) (*bridge.ExecuteResponse, error) {
	f.executeCalls++
	f.lastExecute = payload
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	if f.executeResp != nil {
		return f.executeResp, nil
	}
	return &bridge.ExecuteResponse{Status: "success"}, nil
}

// fakeInference is a scriptable bridge.Inference.
type fakeInference struct {
	generateResult *bridge.GenerateResult
	generateErr    error
	generateCalls  int
	lastGenerate   bridge.GenerateRequest

	answerResult *bridge.AnswerResult
	answerErr    error
	answerCalls  int
	lastAnswer   bridge.AnswerRequest
}

func (f *fakeInference) GenerateQuery(ctx context.Context, req bridge.GenerateRequest) (*bridge.GenerateResult, error) {
	f.generateCalls++
	f.lastGenerate = req
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	if f.generateResult != nil {
		return f.generateResult, nil
	}
	return &bridge.GenerateResult{SQLQuery: "SELECT 1;"}, nil
}

func (f *fakeInference) AnswerQuestion(ctx context.Context, req bridge.AnswerRequest) (*bridge.AnswerResult, error) {
	f.answerCalls++
	f.lastAnswer = req
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if f.answerResult != nil {
		return f.answerResult, nil
	}
	return &bridge.AnswerResult{Answer: "answer"}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServices(gw *fakeGateway, inf *fakeInference) *Services {
	return NewServices(gw, inf, testLogger())
}
