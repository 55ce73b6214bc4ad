package scroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aannaassalam/coachiatry-sub001/internal/scroll"
)

type mockViewport struct {
	mock.Mock
}

func (m *mockViewport) AtBottom() bool {
	return m.Called().Bool(0)
}

func (m *mockViewport) GotoBottom(smooth bool) {
	m.Called(smooth)
}

func (m *mockViewport) GotoTop() {
	m.Called()
}

func TestController_OpenRoomThenGrow(t *testing.T) {
	vp := new(mockViewport)
	c := scroll.New(vp)
	c.SetRoom("r1")

	vp.On("GotoBottom", false).Once()
	c.Observe(5)
	vp.AssertCalled(t, "GotoBottom", false)
	st := c.State()
	assert.False(t, st.NeedsInitialScroll)
	assert.True(t, st.DidInitialScroll)
	assert.Equal(t, 5, st.PrevMessageCount)

	vp.On("GotoBottom", true).Once()
	c.Observe(6)
	vp.AssertCalled(t, "GotoBottom", true)

	c.SetAtBottom(false)
	c.Observe(7)
	vp.AssertNumberOfCalls(t, "GotoBottom", 2)
	assert.Equal(t, 7, c.State().PrevMessageCount)
}

func TestController_EmptyRoomWaitsForFirstMessages(t *testing.T) {
	vp := new(mockViewport)
	c := scroll.New(vp)
	c.SetRoom("r1")

	c.Observe(0)
	vp.AssertNotCalled(t, "GotoBottom", mock.Anything)
	assert.True(t, c.State().NeedsInitialScroll)

	vp.On("GotoBottom", false).Once()
	c.Observe(3)
	vp.AssertExpectations(t)
}

func TestController_SetRoomResets(t *testing.T) {
	vp := new(mockViewport)
	vp.On("GotoBottom", mock.Anything)
	c := scroll.New(vp)

	c.SetRoom("r1")
	c.Observe(10)
	c.SetAtBottom(false)

	c.SetRoom("r2")
	assert.Equal(t, scroll.State{RoomID: "r2", NeedsInitialScroll: true, AtBottom: true}, c.State())

	c.Observe(4)
	vp.AssertNumberOfCalls(t, "GotoBottom", 2)
	assert.Equal(t, mock.Arguments{false}, vp.Calls[1].Arguments)
}

func TestController_ShrinkDoesNotScroll(t *testing.T) {
	vp := new(mockViewport)
	vp.On("GotoBottom", mock.Anything)
	c := scroll.New(vp)

	c.Observe(4)
	c.Observe(3)
	vp.AssertNumberOfCalls(t, "GotoBottom", 1)
	assert.Equal(t, 3, c.State().PrevMessageCount)
}

func TestController_SyncAndExplicitJumps(t *testing.T) {
	vp := new(mockViewport)
	c := scroll.New(vp)

	vp.On("AtBottom").Return(false).Once()
	c.Sync()
	assert.False(t, c.State().AtBottom)

	vp.On("GotoBottom", false).Once()
	c.ScrollToBottom(true)
	assert.True(t, c.State().AtBottom)

	vp.On("GotoBottom", true).Once()
	c.ScrollToBottom(false)

	vp.On("GotoTop").Once()
	vp.On("AtBottom").Return(false).Once()
	c.ScrollToTop()
	assert.False(t, c.State().AtBottom)

	vp.AssertExpectations(t)
}
