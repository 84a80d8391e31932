package apiv1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Service) getContract(c *gin.Context) {
	tx, ok := s.beginTx(c)
	if !ok {
		return
	}
	defer tx.Rollback(c.Request.Context())

	contract, err := tx.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
