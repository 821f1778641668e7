package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/llmclient"
)

func TestMachineContextCollectAndSnapshotMethods(t *testing.T) {
	s := &MachineContext{}
	s.CollectTable(Table{Name: "t1"})
	s.CollectViz(Viz{ChartType: "bar"})
	s.CollectInsight(Insight{Text: "i1"})
	s.CollectDataApp(DataApp{Name: "app1"})
	s.CollectAutomation(Automation{Name: "auto1"})
	s.AppendMessage(llmclient.Message{Role: llmclient.RoleUser, Content: "hi"})

	assert.Equal(t, []Table{{Name: "t1"}}, s.TableSnapshot())
	assert.Equal(t, []Viz{{ChartType: "bar"}}, s.VizSnapshot())
	require.Len(t, s.Insights, 1)
	assert.Equal(t, "i1", s.Insights[0].Text)
	require.Len(t, s.DataApps, 1)
	assert.Equal(t, "app1", s.DataApps[0].Name)
	require.Len(t, s.Automations, 1)
	assert.Equal(t, "auto1", s.Automations[0].Name)
	require.Len(t, s.Trace(), 1)
	assert.Equal(t, "hi", s.Trace()[0].Content)
}

func TestMachineContextSnapshotsAreCopiesNotAliases(t *testing.T) {
	s := &MachineContext{}
	s.CollectTable(Table{Name: "t1"})

	snap := s.TableSnapshot()
	snap[0].Name = "mutated"

	assert.Equal(t, "t1", s.TableSnapshot()[0].Name)
}

func TestMachineContextLastTable(t *testing.T) {
	s := &MachineContext{}
	_, ok := s.LastTable()
	assert.False(t, ok)

	s.CollectTable(Table{Name: "first"})
	s.CollectTable(Table{Name: "second"})

	last, ok := s.LastTable()
	require.True(t, ok)
	assert.Equal(t, "second", last.Name)
}

func TestMachineContextMergeFromCombinesArtifactsAndTrace(t *testing.T) {
	parent := &MachineContext{}
	parent.CollectTable(Table{Name: "parent-table"})
	parent.AppendMessage(llmclient.Message{Role: llmclient.RoleUser, Content: "parent"})

	child := &MachineContext{}
	child.CollectTable(Table{Name: "child-table"})
	child.CollectViz(Viz{ChartType: "line"})
	child.CollectInsight(Insight{Text: "child-insight"})
	child.CollectDataApp(DataApp{Name: "child-app"})
	child.CollectAutomation(Automation{Name: "child-auto"})
	child.AppendMessage(llmclient.Message{Role: llmclient.RoleAssistant, Content: "child"})

	parent.MergeFrom(child)

	tables := parent.TableSnapshot()
	require.Len(t, tables, 2)
	assert.Equal(t, "parent-table", tables[0].Name)
	assert.Equal(t, "child-table", tables[1].Name)

	require.Len(t, parent.VizSnapshot(), 1)
	require.Len(t, parent.Insights, 1)
	require.Len(t, parent.DataApps, 1)
	require.Len(t, parent.Automations, 1)

	trace := parent.Trace()
	require.Len(t, trace, 2)
	assert.Equal(t, "parent", trace[0].Content)
	assert.Equal(t, "child", trace[1].Content)
}

func TestMachineContextMergeFromNilIsNoop(t *testing.T) {
	s := &MachineContext{}
	s.CollectTable(Table{Name: "t"})
	s.MergeFrom(nil)
	assert.Len(t, s.TableSnapshot(), 1)
}
