package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/engine"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/stretchr/testify/require"
)

// Menu position of the random engine
const randomChoice = "6"

func TestMain(m *testing.M) {
	search.SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", search.SeedGeneratorFn())

	os.Exit(m.Run())
}

func moveInput(m board.Move) string {
	return fmt.Sprintf("%d, %d", m.Row()+1, m.Col()+1)
}

func TestChoicesAreRegistered(t *testing.T) {
	for _, c := range choices {
		require.Contains(t, engine.Names(), c.engine)
	}
	require.Equal(t, "random", choices[6-1].engine)
}

func TestHappyPath(t *testing.T) {
	s := New(engine.DefaultConfig())
	require.Equal(t, StateStart, s.State())

	require.Contains(t, s.Respond(""), "Welcome")
	require.Equal(t, StateChooseAlgo, s.State())

	require.Contains(t, s.Respond(randomChoice), "seconds")
	require.Equal(t, StateChooseTime, s.State())

	require.Contains(t, s.Respond("1"), "X/O")
	require.Equal(t, StateChooseSide, s.State())

	require.Contains(t, s.Respond("x"), "Your move")
	require.Equal(t, StateHumanTurn, s.State())

	for s.State() != StateGameFinished {
		switch s.State() {
		case StateHumanTurn:
			m := s.Board().Actions()[0]
			s.Respond(moveInput(m))
		case StateAlgoTurn:
			before := s.Board().Ply()
			s.Respond("")
			require.Equal(t, before+1, s.Board().Ply())
		default:
			t.Fatalf("unexpected state %v", s.State())
		}
	}

	require.True(t, s.Board().IsTerminal())
	text := s.Respond("anything")
	require.Contains(t, text, "new")
	require.Equal(t, StateGameFinished, s.State())

	require.Contains(t, s.Respond("new"), "Welcome")
	require.Equal(t, StateChooseAlgo, s.State())
	require.Equal(t, board.New(), s.Board())
}

func TestEngineMovesFirstAsO(t *testing.T) {
	s := New(engine.DefaultConfig())
	s.Respond("")
	s.Respond(randomChoice)
	s.Respond("2")
	s.Respond("O")
	require.Equal(t, StateAlgoTurn, s.State())

	text := s.Respond("")
	require.Contains(t, text, "Engine played")
	require.Equal(t, StateHumanTurn, s.State())
	require.Equal(t, 1, s.Board().Ply())
}

func TestInvalidInputs(t *testing.T) {
	s := New(engine.DefaultConfig())
	s.Respond("")

	for _, input := range []string{"", "0", "7", "mcts"} {
		require.Contains(t, s.Respond(input), "Invalid choice")
		require.Equal(t, StateChooseAlgo, s.State())
	}
	s.Respond(randomChoice)

	for _, input := range []string{"0", "6", "two"} {
		require.Contains(t, s.Respond(input), "Invalid time")
		require.Equal(t, StateChooseTime, s.State())
	}
	s.Respond("5")

	require.Contains(t, s.Respond("Z"), "Invalid side")
	s.Respond("X")

	tests := []struct {
		input string
		want  string
	}{
		{"5 5", "invalid"},
		{"10, 1", "invalid"},
		{"a, b", "invalid"},
	}
	for _, tt := range tests {
		text := s.Respond(tt.input)
		require.Contains(t, text, tt.want, tt.input)
		require.Contains(t, text, "Your move")
		require.Equal(t, StateHumanTurn, s.State())
	}

	// Legal first move, then a reply into the wrong sub-board
	s.Respond("5, 5")
	s.Respond("")
	forced := s.Board().BoardIndex()
	wrong := board.MoveAt((forced+1)%9, 0)
	require.Contains(t, s.Respond(moveInput(wrong)), "not legal")
	require.Equal(t, StateHumanTurn, s.State())
}

func post(t *testing.T, h http.Handler, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))

	var resp Response
	if rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return rec, resp
}

func TestHandler(t *testing.T) {
	store := NewStore(engine.DefaultConfig())
	defer store.Close()
	h := Handler(store)

	rec, created := post(t, h, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, created.ID)
	require.Contains(t, created.Text, "Welcome")

	path := "/sessions/" + created.ID
	for _, input := range []string{randomChoice, "1", "X"} {
		rec, _ = post(t, h, path, inputRequest{Input: input})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := post(t, h, path, inputRequest{Input: "5, 5"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, StateAlgoTurn.String(), resp.State)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, get.Code)
	var snapshot Response
	require.NoError(t, json.NewDecoder(get.Body).Decode(&snapshot))
	b, err := board.ParseCompact(snapshot.Board)
	require.NoError(t, err)
	require.Equal(t, 1, b.Ply())

	del := httptest.NewRecorder()
	h.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusNoContent, del.Code)

	rec, _ = post(t, h, path, inputRequest{Input: "1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerBadPayload(t *testing.T) {
	store := NewStore(engine.DefaultConfig())
	h := Handler(store)
	_, created := post(t, h, "/sessions", nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+created.ID, bytes.NewBufferString("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
