package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

func (s *Server) listWorkflows(c *gin.Context) {
	c.JSON(http.StatusOK, s.workflows.All())
}

func (s *Server) createWorkflow(c *gin.Context) {
	var wf models.AutomationWorkflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.workflows.Create(wf)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getWorkflow(c *gin.Context) {
	id := c.Param("id")
	wf, ok := s.workflows.Get(id)
	if !ok {
		notFound(c, "workflow", id)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) updateWorkflow(c *gin.Context) {
	var wf models.AutomationWorkflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wf.ID = c.Param("id")
	updated, err := s.workflows.Update(wf)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteWorkflow(c *gin.Context) {
	if err := s.workflows.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) activateWorkflow(c *gin.Context)   { s.setActive(c, true) }
func (s *Server) deactivateWorkflow(c *gin.Context) { s.setActive(c, false) }

func (s *Server) setActive(c *gin.Context, active bool) {
	id := c.Param("id")
	if err := s.workflows.SetActive(id, active); err != nil {
		abortWithError(c, err)
		return
	}
	wf, _ := s.workflows.Get(id)
	c.JSON(http.StatusOK, wf)
}

func (s *Server) executeWorkflow(c *gin.Context) {
	var body struct {
		TriggerID string `json:"triggerId"`
	}
	// An empty body runs the workflow without naming a trigger.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	exec, err := s.workflows.Execute(c.Request.Context(), c.Param("id"), body.TriggerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}

func (s *Server) listExecutions(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.workflows.Get(id); !ok {
		notFound(c, "workflow", id)
		return
	}
	c.JSON(http.StatusOK, s.workflows.Executions(id))
}

func (s *Server) automationMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.workflows.Metrics())
}
