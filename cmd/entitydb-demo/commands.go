package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aodb/entitydb/internal/codec"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/obs"
	"github.com/aodb/entitydb/internal/samples/printable"
	"github.com/aodb/entitydb/internal/samples/serializable"
)

var createEntityCount int

var createEntityCmd = &cobra.Command{
	Use:   "create-entity",
	Short: "Create one or more empty entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		if createEntityCount <= 0 {
			createEntityCount = 1
		}
		for i := 0; i < createEntityCount; i++ {
			e := db.CreateEntity()
			fmt.Printf("created entity id=%s\n", e.DebugID())
		}
		fmt.Printf("total live entities: %d\n", db.EntityCount())
		return nil
	},
}

var addCounterCmd = &cobra.Command{
	Use:   "add-counter",
	Short: "Attach a Counter to a new entity and print its lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		c := kernel.Add[Counter](e, &Counter{Value: 1})
		e.Unlock()

		e.RLock()
		has := kernel.Has[Counter](e)
		e.RUnlock()
		fmt.Printf("entity id=%s: Counter{Value:%d} attached, Has[Counter]=%v\n", e.DebugID(), c.Value, has)
		return nil
	},
}

var addLabelCmd = &cobra.Command{
	Use:   "add-label",
	Short: "Attach a Label to a new entity and print its lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		l := kernel.Add[Label](e, &Label{Text: "demo"})
		e.Unlock()
		fmt.Printf("entity id=%s: Label{Text:%q} attached\n", e.DebugID(), l.Text)
		return nil
	},
}

var removeCounterCmd = &cobra.Command{
	Use:   "remove-counter",
	Short: "Attach then remove a Counter, showing the external lifetime root release",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		kernel.Add[Counter](e, &Counter{Value: 1})
		e.Unlock()

		e.RLock()
		before := kernel.Has[Counter](e)
		e.RUnlock()

		e.Lock()
		kernel.Remove[Counter, *Counter](e)
		e.Unlock()

		e.RLock()
		after := kernel.Has[Counter](e)
		e.RUnlock()

		fmt.Printf("entity id=%s: Has[Counter] before remove=%v, after remove=%v\n", e.DebugID(), before, after)
		return nil
	},
}

var destroyEntityCmd = &cobra.Command{
	Use:   "destroy-entity",
	Short: "Destroy an entity carrying multiple attached objects and show weak-reference invalidation",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		kernel.Add[Counter](e, &Counter{Value: 7})
		kernel.Add[Label](e, &Label{Text: "doomed"})
		e.Unlock()

		w := e.Weak()
		_, aliveBefore := w.Get()

		db.DestroyEntity(e)

		_, aliveAfter := w.Get()
		fmt.Printf("weak ref resolved before destroy=%v, after destroy=%v\n", aliveBefore, aliveAfter)
		return nil
	},
}

var listCounterCount int

var listCountersCmd = &cobra.Command{
	Use:   "list-counters",
	Short: "Create several Counters and list them via Query after apply-changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listCounterCount <= 0 {
			listCounterCount = 3
		}
		for i := 0; i < listCounterCount; i++ {
			e := db.CreateEntity()
			e.Lock()
			kernel.Add[Counter](e, &Counter{Value: i})
			e.Unlock()
		}
		fmt.Printf("pending before apply-changes: %d\n", db.PendingCount())
		db.ApplyChanges()

		for _, c := range kernel.Query[Counter, *Counter](db) {
			fmt.Printf("counter: entity id=%s value=%d\n", c.Entity().DebugID(), c.Value)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Aggregate an entity's parts into a Document and encode it via the JSON codec",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		c := kernel.Add[Counter](e, &Counter{Value: 42})
		l := kernel.Add[Label](e, &Label{Text: "exported"})
		e.Unlock()

		parts := []serializable.Part{c, l}
		data, err := serializable.Encode(e, parts, codec.Retrying{Codec: codec.JSON{}})
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Aggregate an entity's parts into a Console and log each one",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		c := kernel.Add[Counter](e, &Counter{Value: 3})
		l := kernel.Add[Label](e, &Label{Text: "logged"})
		e.Unlock()

		parts := []printable.Part{c, l}
		printable.Print(e, parts, obs.New(nil))
		return nil
	},
}

var applyChangesCmd = &cobra.Command{
	Use:   "apply-changes",
	Short: "Show the pending-changes queue drain into the per-type index",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := db.CreateEntity()
		e.Lock()
		kernel.Add[Counter](e, &Counter{Value: 1})
		e.Unlock()

		fmt.Printf("pending=%d, visible before apply=%d\n", db.PendingCount(), len(kernel.Query[Counter, *Counter](db)))
		db.ApplyChanges()
		fmt.Printf("pending=%d, visible after apply=%d\n", db.PendingCount(), len(kernel.Query[Counter, *Counter](db)))
		return nil
	},
}

var optimizeForce bool

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Create and remove Counters, then compact the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		var entities []kernel.Entity
		for i := 0; i < 5; i++ {
			e := db.CreateEntity()
			e.Lock()
			kernel.Add[Counter](e, &Counter{Value: i})
			e.Unlock()
			entities = append(entities, e)
		}
		db.ApplyChanges()

		for _, e := range entities[:3] {
			e.Lock()
			kernel.Remove[Counter, *Counter](e)
			e.Unlock()
		}

		fmt.Printf("live counters before optimize: %d\n", len(kernel.Query[Counter, *Counter](db)))
		db.Optimize(optimizeForce)
		fmt.Printf("live counters after optimize: %d\n", len(kernel.Query[Counter, *Counter](db)))
		return nil
	},
}

func init() {
	createEntityCmd.Flags().IntVar(&createEntityCount, "count", 1, "number of entities to create")
	listCountersCmd.Flags().IntVar(&listCounterCount, "count", 3, "number of counters to create")
	optimizeCmd.Flags().BoolVar(&optimizeForce, "force", false, "compact every index regardless of its deletion threshold")
}

